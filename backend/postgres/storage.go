package postgres

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jackc/pgx/v5"
	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

func (pb *PostgresBackend) Stat(ctx context.Context, key string) (*data.Entry, error) {
	var (
		size        int64
		modifyTime  int64
		contentType *string
		etag        *string
	)

	err := pb.pool.QueryRow(ctx,
		"SELECT size, modify_time, content_type, etag FROM uvfs_objects WHERE key = $1",
		key).Scan(&size, &modifyTime, &contentType, &etag)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, data.ErrNotExist
	}
	if err != nil {
		return nil, data.IOFailure("stat", key, err)
	}

	entry := &data.Entry{
		Key:        key,
		Kind:       data.KindFile,
		Size:       size,
		ModifyTime: time.Unix(0, modifyTime),
	}
	if contentType != nil {
		entry.ContentType = *contentType
	}
	if etag != nil {
		entry.ETag = *etag
	}

	return entry, nil
}

func (pb *PostgresBackend) List(ctx context.Context, dir string, recursive bool) ([]*data.Entry, error) {
	listing := backend.NewListing(dir, recursive)

	rows, err := pb.pool.Query(ctx,
		"SELECT key, size, modify_time FROM uvfs_objects WHERE starts_with(key, $1) ORDER BY key",
		listing.Prefix())
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

		listing.Add(key, size, time.Unix(0, modifyTime))
	}

	if err := rows.Err(); err != nil {
		return nil, data.IOFailure("list", dir, err)
	}

	return listing.Entries(), nil
}

func (pb *PostgresBackend) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	var content []byte

	err := pb.pool.QueryRow(ctx,
		"SELECT content FROM uvfs_objects WHERE key = $1",
		key).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, data.ErrNotExist
	}
	if err != nil {
		return nil, data.IOFailure("open", key, err)
	}

	return io.NopCloser(bytes.NewReader(content)), nil
}

func (pb *PostgresBackend) Create(ctx context.Context, key string, r io.Reader) (int64, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return 0, data.IOFailure("create", key, err)
	}

	size := int64(len(content))
	etag := strconv.FormatUint(xxhash.Sum64(content), 16)

	tag, err := pb.pool.Exec(ctx,
		`INSERT INTO uvfs_objects (key, content, size, modify_time, content_type, etag)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO NOTHING`,
		key, content, size, time.Now().UnixNano(), data.ContentTypeOf(key), etag)
	if err != nil {
		return 0, data.IOFailure("create", key, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, data.ErrConflict
	}

	return size, nil
}

func (pb *PostgresBackend) Delete(ctx context.Context, key string) error {
	tag, err := pb.pool.Exec(ctx, "DELETE FROM uvfs_objects WHERE key = $1", key)
	if err != nil {
		return data.IOFailure("delete", key, err)
	}
	if tag.RowsAffected() == 0 {
		return data.ErrNotExist
	}

	return nil
}

// DeleteMany removes all keys with a single statement; keys that were not
// returned as deleted are reported as missing.
func (pb *PostgresBackend) DeleteMany(ctx context.Context, keys []string) []backend.DeleteResult {
	results := make([]backend.DeleteResult, 0, len(keys))

	rows, err := pb.pool.Query(ctx, "DELETE FROM uvfs_objects WHERE key = ANY($1) RETURNING key", keys)
	if err != nil {
		for _, key := range keys {
			results = append(results, backend.DeleteResult{Key: key, Err: data.IOFailure("delete", key, err)})
		}
		return results
	}

	deleted, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		for _, key := range keys {
			results = append(results, backend.DeleteResult{Key: key, Err: data.IOFailure("delete", key, err)})
		}
		return results
	}

	removed := make(map[string]struct{}, len(deleted))
	for _, key := range deleted {
		removed[key] = struct{}{}
	}

	for _, key := range keys {
		result := backend.DeleteResult{Key: key}
		if _, ok := removed[key]; !ok {
			result.Err = data.ErrNotExist
		}
		results = append(results, result)
	}

	return results
}
