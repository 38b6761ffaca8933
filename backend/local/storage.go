package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
	"github.com/spf13/afero"
)

func (lb *LocalBackend) Stat(ctx context.Context, key string) (*data.Entry, error) {
	info, err := lb.fs.Stat(resolvePath(key))
	if err != nil {
		return nil, mapError("stat", key, err)
	}

	return toEntry(key, info), nil
}

func (lb *LocalBackend) List(ctx context.Context, dir string, recursive bool) ([]*data.Entry, error) {
	fullPath := resolvePath(dir)

	info, err := lb.fs.Stat(fullPath)
	if err != nil {
		return nil, mapError("list", dir, err)
	}
	if !info.IsDir() {
		return nil, &data.PathError{Op: "list", Path: dir, Kind: data.ErrNotDirectory}
	}

	if !recursive {
		infos, err := afero.ReadDir(lb.fs, fullPath)
		if err != nil {
			return nil, mapError("list", dir, err)
		}

		entries := make([]*data.Entry, 0, len(infos))
		for _, info := range infos {
			entries = append(entries, toEntry(data.JoinKey(dir, info.Name()), info))
		}
		return entries, nil
	}

	var entries []*data.Entry
	err = afero.Walk(lb.fs, fullPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		key := data.CleanKey(filepath.ToSlash(path))
		if key == dir {
			return nil
		}

		entries = append(entries, toEntry(key, info))
		return nil
	})
	if err != nil {
		return nil, mapError("list", dir, err)
	}

	return entries, nil
}

func (lb *LocalBackend) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := lb.fs.Open(resolvePath(key))
	if err != nil {
		return nil, mapError("open", key, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, mapError("open", key, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, &data.PathError{Op: "open", Path: key, Kind: data.ErrIsDirectory}
	}

	return file, nil
}

func (lb *LocalBackend) Create(ctx context.Context, key string, r io.Reader) (int64, error) {
	fullPath := resolvePath(key)

	file, err := lb.fs.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
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
		// Never leave a truncated file behind
		lb.fs.Remove(fullPath)
		return n, data.IOFailure("create", key, err)
	}

	return n, nil
}

func (lb *LocalBackend) Delete(ctx context.Context, key string) error {
	fullPath := resolvePath(key)

	info, err := lb.fs.Stat(fullPath)
	if err != nil {
		return mapError("delete", key, err)
	}
	if info.IsDir() {
		return &data.PathError{Op: "delete", Path: key, Kind: data.ErrIsDirectory}
	}

	if err := lb.fs.Remove(fullPath); err != nil {
		return mapError("delete", key, err)
	}

	return nil
}

func (lb *LocalBackend) DeleteMany(ctx context.Context, keys []string) []backend.DeleteResult {
	return backend.DeleteEach(ctx, lb, keys)
}

func (lb *LocalBackend) MakeDirectory(ctx context.Context, key string) error {
	fullPath := resolvePath(key)

	if err := lb.fs.Mkdir(fullPath, 0755); err != nil {
		info, statErr := lb.fs.Stat(fullPath)
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

func (lb *LocalBackend) RemoveDirectory(ctx context.Context, key string) error {
	fullPath := resolvePath(key)

	infos, err := afero.ReadDir(lb.fs, fullPath)
	if err != nil {
		return mapError("rmdir", key, err)
	}
	if len(infos) > 0 {
		return &data.PathError{Op: "rmdir", Path: key, Kind: data.ErrConflict}
	}

	if err := lb.fs.Remove(fullPath); err != nil {
		return mapError("rmdir", key, err)
	}

	return nil
}

func (lb *LocalBackend) RemoveTree(ctx context.Context, key string) error {
	if strings.Trim(key, "/") == "" {
		return &data.PathError{Op: "rmdir", Path: key, Kind: data.ErrInvalid}
	}

	if err := lb.fs.RemoveAll(resolvePath(key)); err != nil {
		return mapError("rmdir", key, err)
	}

	return nil
}
