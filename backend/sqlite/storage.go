package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

func (sb *SQLiteBackend) Stat(ctx context.Context, key string) (*data.Entry, error) {
	var (
		size        int64
		modifyTime  int64
		contentType sql.NullString
		etag        sql.NullString
	)

	err := sb.db.QueryRowContext(ctx,
		"SELECT size, modify_time, content_type, etag FROM uvfs_objects WHERE key = ?",
		key).Scan(&size, &modifyTime, &contentType, &etag)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, data.ErrNotExist
	}
	if err != nil {
		return nil, data.IOFailure("stat", key, err)
	}

	return &data.Entry{
		Key:         key,
		Kind:        data.KindFile,
		Size:        size,
		ModifyTime:  time.Unix(0, modifyTime),
		ContentType: contentType.String,
		ETag:        etag.String,
	}, nil
}

func (sb *SQLiteBackend) List(ctx context.Context, dir string, recursive bool) ([]*data.Entry, error) {
	listing := backend.NewListing(dir, recursive)
	prefix := listing.Prefix()

	rows, err := sb.db.QueryContext(ctx,
		"SELECT key, size, modify_time FROM uvfs_objects WHERE key >= ? ORDER BY key",
		prefix)
	if err != nil {
		return nil, data.IOFailure("list", dir, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key        string
			size       int64
			modifyTime int64
		)
		if err := rows.Scan(&key, &size, &modifyTime); err != nil {
			return nil, data.IOFailure("list", dir, err)
		}

		// Keys are ordered, so the first key outside the prefix ends the scan
		if !strings.HasPrefix(key, prefix) {
			break
		}

		listing.Add(key, size, time.Unix(0, modifyTime))
	}

	if err := rows.Err(); err != nil {
		return nil, data.IOFailure("list", dir, err)
	}

	return listing.Entries(), nil
}

func (sb *SQLiteBackend) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	var content []byte

	err := sb.db.QueryRowContext(ctx,
		"SELECT content FROM uvfs_objects WHERE key = ?",
		key).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, data.ErrNotExist
	}
	if err != nil {
		return nil, data.IOFailure("open", key, err)
	}

	return io.NopCloser(bytes.NewReader(content)), nil
}

func (sb *SQLiteBackend) Create(ctx context.Context, key string, r io.Reader) (int64, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return 0, data.IOFailure("create", key, err)
	}

	size := int64(len(content))
	etag := strconv.FormatUint(xxhash.Sum64(content), 16)

	result, err := sb.db.ExecContext(ctx,
		`INSERT INTO uvfs_objects (key, content, size, modify_time, content_type, etag)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING`,
		key, content, size, time.Now().UnixNano(), data.ContentTypeOf(key), etag)
	if err != nil {
		return 0, data.IOFailure("create", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, data.IOFailure("create", key, err)
	}
	if affected == 0 {
		return 0, data.ErrConflict
	}

	return size, nil
}

func (sb *SQLiteBackend) Delete(ctx context.Context, key string) error {
	result, err := sb.db.ExecContext(ctx, "DELETE FROM uvfs_objects WHERE key = ?", key)
	if err != nil {
		return data.IOFailure("delete", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return data.IOFailure("delete", key, err)
	}
	if affected == 0 {
		return data.ErrNotExist
	}

	return nil
}

func (sb *SQLiteBackend) DeleteMany(ctx context.Context, keys []string) []backend.DeleteResult {
	return backend.DeleteEach(ctx, sb, keys)
}
