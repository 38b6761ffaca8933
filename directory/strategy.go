// Package directory maps hierarchical directory semantics onto the native
// capabilities of a backend driver.
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

// Type selects one strategy variant for the lifetime of a session.
type Type string

const (
	// Directories are real and managed by the driver
	TypeNative Type = "native"
	// Directories are inferred from key prefixes plus an in-process pending set
	TypePrefix Type = "prefix"
	// Directories are zero-length marker objects stored at "key/"
	TypeMarker Type = "marker"
)

// Strategy answers every directory question a session asks. Keys follow the
// driver convention; the empty key is the root and always exists.
type Strategy interface {
	Type() Type

	// Exists reports whether key is a directory.
	Exists(ctx context.Context, key string) (bool, error)
	// Make creates directory key. It fails with data.ErrConflict if an object
	// occupies key. The caller has verified that the parent exists.
	Make(ctx context.Context, key string) error
	// List returns the immediate children of directory key sorted by key.
	List(ctx context.Context, key string) ([]*data.Entry, error)
	// Remove deletes the empty directory key.
	Remove(ctx context.Context, key string) error
	// RemoveAll deletes key and every descendant.
	RemoveAll(ctx context.Context, key string) error
}

// ParseType validates a strategy name. The empty string selects the default.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case "", TypeNative, TypePrefix, TypeMarker:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown directory strategy '%s'", data.ErrInvalid, s)
	}
}

// DefaultType returns the strategy used when none is configured.
func DefaultType(driver backend.Driver) Type {
	if driver.Capabilities().IsHierarchical() {
		return TypeNative
	}

	return TypePrefix
}

// New builds the strategy t for driver. Combining a flat strategy with a
// hierarchical driver or the other way round fails with data.ErrConstruction.
func New(t Type, driver backend.Driver) (Strategy, error) {
	if t == "" {
		t = DefaultType(driver)
	}

	hierarchical := driver.Capabilities().IsHierarchical()

	switch t {
	case TypeNative:
		dirs, ok := driver.(backend.Directories)
		if !hierarchical || !ok {
			return nil, fmt.Errorf("%w: driver '%s' has no native directories", data.ErrConstruction, driver.Name())
		}
		return &nativeStrategy{driver: driver, dirs: dirs}, nil

	case TypePrefix, TypeMarker:
		if hierarchical {
			return nil, fmt.Errorf("%w: driver '%s' requires the native directory strategy", data.ErrConstruction, driver.Name())
		}
		if t == TypeMarker {
			return &markerStrategy{driver: driver}, nil
		}
		return &prefixStrategy{driver: driver, pending: NewPendingSet()}, nil
	}

	return nil, fmt.Errorf("%w: unknown directory strategy '%s'", data.ErrConstruction, t)
}

// children drops the entry describing dir itself, e.g. its own marker object.
func children(dir string, entries []*data.Entry) []*data.Entry {
	filtered := entries[:0]
	for _, entry := range entries {
		if entry.Key == dir || entry.Key == "" {
			continue
		}
		filtered = append(filtered, entry)
	}

	return filtered
}

// removeObjects deletes every object below dir in one batch.
func removeObjects(ctx context.Context, driver backend.Driver, dir string) error {
	entries, err := driver.List(ctx, dir, true)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		keys = append(keys, backend.ObjectKey(entry))
	}

	return backend.JoinResults(driver.DeleteMany(ctx, keys))
}
