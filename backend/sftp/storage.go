package sftp

import (
	"context"
	"io"
	"os"
	"sort"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

func (sb *SFTPBackend) Stat(ctx context.Context, key string) (*data.Entry, error) {
	info, err := sb.client.Stat(sb.resolvePath(key))
	if err != nil {
		return nil, mapError("stat", key, err)
	}

	return toEntry(key, info), nil
}

func (sb *SFTPBackend) List(ctx context.Context, dir string, recursive bool) ([]*data.Entry, error) {
	fullPath := sb.resolvePath(dir)

	info, err := sb.client.Stat(fullPath)
	if err != nil {
		return nil, mapError("list", dir, err)
	}
	if !info.IsDir() {
		return nil, &data.PathError{Op: "list", Path: dir, Kind: data.ErrNotDirectory}
	}

	var entries []*data.Entry

	if !recursive {
		infos, err := sb.client.ReadDir(fullPath)
		if err != nil {
			return nil, mapError("list", dir, err)
		}

		for _, info := range infos {
			entries = append(entries, toEntry(data.JoinKey(dir, info.Name()), info))
		}
	} else {
		walker := sb.client.Walk(fullPath)
		for walker.Step() {
			if err := walker.Err(); err != nil {
				return nil, mapError("list", dir, err)
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			key := sb.relativeKey(walker.Path())
			if key == dir {
				continue
			}

			entries = append(entries, toEntry(key, walker.Stat()))
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})

	return entries, nil
}

func (sb *SFTPBackend) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath := sb.resolvePath(key)

	info, err := sb.client.Stat(fullPath)
	if err != nil {
		return nil, mapError("open", key, err)
	}
	if info.IsDir() {
		return nil, &data.PathError{Op: "open", Path: key, Kind: data.ErrIsDirectory}
	}

	file, err := sb.client.Open(fullPath)
	if err != nil {
		return nil, mapError("open", key, err)
	}

	return file, nil
}

func (sb *SFTPBackend) Create(ctx context.Context, key string, r io.Reader) (int64, error) {
	fullPath := sb.resolvePath(key)

	// Not every server honours O_EXCL, so check explicitly as well
	if _, err := sb.client.Lstat(fullPath); err == nil {
		return 0, data.ErrConflict
	}

	file, err := sb.client.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
	if err != nil {
		return 0, mapError("create", key, err)
	}

	n, err := io.Copy(file, r)
	if err == nil {
		err = file.Close()
	} else {
		file.Close()
	}

	if err != nil {
		sb.client.Remove(fullPath)
		return n, data.IOFailure("create", key, err)
	}

	return n, nil
}

func (sb *SFTPBackend) Delete(ctx context.Context, key string) error {
	fullPath := sb.resolvePath(key)

	info, err := sb.client.Stat(fullPath)
	if err != nil {
		return mapError("delete", key, err)
	}
	if info.IsDir() {
		return &data.PathError{Op: "delete", Path: key, Kind: data.ErrIsDirectory}
	}

	if err := sb.client.Remove(fullPath); err != nil {
		return mapError("delete", key, err)
	}

	return nil
}

func (sb *SFTPBackend) DeleteMany(ctx context.Context, keys []string) []backend.DeleteResult {
	return backend.DeleteEach(ctx, sb, keys)
}

func (sb *SFTPBackend) MakeDirectory(ctx context.Context, key string) error {
	fullPath := sb.resolvePath(key)

	if err := sb.client.Mkdir(fullPath); err != nil {
		info, statErr := sb.client.Stat(fullPath)
		if statErr == nil {
			if info.IsDir() {
				return nil
			}
			return &data.PathError{Op: "mkdir", Path: key, Kind: data.ErrConflict}
		}

		return mapError("mkdir", key, err)
	}

	return nil
}

func (sb *SFTPBackend) RemoveDirectory(ctx context.Context, key string) error {
	fullPath := sb.resolvePath(key)

	infos, err := sb.client.ReadDir(fullPath)
	if err != nil {
		return mapError("rmdir", key, err)
	}
	if len(infos) > 0 {
		return &data.PathError{Op: "rmdir", Path: key, Kind: data.ErrConflict}
	}

	if err := sb.client.RemoveDirectory(fullPath); err != nil {
		return mapError("rmdir", key, err)
	}

	return nil
}

func (sb *SFTPBackend) RemoveTree(ctx context.Context, key string) error {
	if key == "" {
		return &data.PathError{Op: "rmdir", Path: key, Kind: data.ErrInvalid}
	}

	if err := sb.client.RemoveAll(sb.resolvePath(key)); err != nil {
		return mapError("rmdir", key, err)
	}

	return nil
}
