package directory

import (
	"bytes"
	"context"
	"errors"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

// markerStrategy persists directories as zero-length objects at "key/".
// Markers never show up in listings.
type markerStrategy struct {
	driver backend.Driver
}

func (*markerStrategy) Type() Type {
	return TypeMarker
}

func markerKey(key string) string {
	return key + "/"
}

func (s *markerStrategy) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}

	// The listing of "key/" contains the marker itself as well as implicit children
	entries, err := s.driver.List(ctx, key, false)
	if err != nil {
		return false, err
	}

	return len(entries) > 0, nil
}

func (s *markerStrategy) Make(ctx context.Context, key string) error {
	if _, err := s.driver.Stat(ctx, key); err == nil {
		return data.ErrConflict
	} else if !errors.Is(err, data.ErrNotExist) {
		return err
	}

	if _, err := s.driver.Create(ctx, markerKey(key), bytes.NewReader(nil)); err != nil {
		// Somebody else created the same directory first
		if errors.Is(err, data.ErrConflict) {
			return nil
		}
		return err
	}

	return nil
}

func (s *markerStrategy) List(ctx context.Context, key string) ([]*data.Entry, error) {
	entries, err := s.driver.List(ctx, key, false)
	if err != nil {
		return nil, err
	}

	return children(key, entries), nil
}

func (s *markerStrategy) Remove(ctx context.Context, key string) error {
	// Implicit directories have no marker to delete
	if err := s.driver.Delete(ctx, markerKey(key)); err != nil && !errors.Is(err, data.ErrNotExist) {
		return err
	}

	return nil
}

func (s *markerStrategy) RemoveAll(ctx context.Context, key string) error {
	return removeObjects(ctx, s.driver, key)
}
