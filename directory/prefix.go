package directory

import (
	"context"
	"errors"
	"sort"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

// prefixStrategy infers directories from key prefixes. Directories created by
// Make stay in the pending set until removed; an empty directory therefore
// does not survive a restart of the process.
type prefixStrategy struct {
	driver  backend.Driver
	pending *PendingSet
}

func (*prefixStrategy) Type() Type {
	return TypePrefix
}

// Pending exposes the in-process set of directories without backing objects.
func (s *prefixStrategy) Pending() *PendingSet {
	return s.pending
}

func (s *prefixStrategy) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}

	if s.pending.ContainsTree(key) {
		return true, nil
	}

	entries, err := s.driver.List(ctx, key, false)
	if err != nil {
		return false, err
	}

	return len(entries) > 0, nil
}

func (s *prefixStrategy) Make(ctx context.Context, key string) error {
	if _, err := s.driver.Stat(ctx, key); err == nil {
		return data.ErrConflict
	} else if !errors.Is(err, data.ErrNotExist) {
		return err
	}

	s.pending.Add(key)
	return nil
}

func (s *prefixStrategy) List(ctx context.Context, key string) ([]*data.Entry, error) {
	entries, err := s.driver.List(ctx, key, false)
	if err != nil {
		return nil, err
	}
	entries = children(key, entries)

	known := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		known[entry.Key] = struct{}{}
	}

	added := false
	for _, child := range s.pending.Children(key) {
		if _, exists := known[child]; exists {
			continue
		}

		entries = append(entries, &data.Entry{
			Key:  child,
			Kind: data.KindDirectory,
		})
		added = true
	}

	if added {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Key < entries[j].Key
		})
	}

	return entries, nil
}

func (s *prefixStrategy) Remove(ctx context.Context, key string) error {
	s.pending.Remove(key)
	return nil
}

func (s *prefixStrategy) RemoveAll(ctx context.Context, key string) error {
	if err := removeObjects(ctx, s.driver, key); err != nil {
		return err
	}

	s.pending.RemoveTree(key)
	return nil
}
