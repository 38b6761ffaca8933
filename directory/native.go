package directory

import (
	"context"
	"errors"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

type nativeStrategy struct {
	driver backend.Driver
	dirs   backend.Directories
}

func (*nativeStrategy) Type() Type {
	return TypeNative
}

func (s *nativeStrategy) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}

	entry, err := s.driver.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, data.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	return entry.Kind.IsDir(), nil
}

func (s *nativeStrategy) Make(ctx context.Context, key string) error {
	return s.dirs.MakeDirectory(ctx, key)
}

func (s *nativeStrategy) List(ctx context.Context, key string) ([]*data.Entry, error) {
	entries, err := s.driver.List(ctx, key, false)
	if err != nil {
		return nil, err
	}

	return children(key, entries), nil
}

func (s *nativeStrategy) Remove(ctx context.Context, key string) error {
	return s.dirs.RemoveDirectory(ctx, key)
}

func (s *nativeStrategy) RemoveAll(ctx context.Context, key string) error {
	return s.dirs.RemoveTree(ctx, key)
}
