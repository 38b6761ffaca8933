// Package readonly wraps a driver so that every write is refused.
package readonly

import (
	"context"
	"errors"
	"io"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

// ErrReadOnly is the cause attached to every refused write.
var ErrReadOnly = errors.New("vfs: backend is read-only")

// ReadOnlyDriver passes all read operations through to the wrapped driver.
// All write operations fail with data.ErrUnsupported.
type ReadOnlyDriver struct {
	backend.Driver
}

type readOnlyHierarchy struct {
	*ReadOnlyDriver
}

// Wrap returns a read-only view of d. Drivers with native directories keep
// implementing backend.Directories so strategy selection stays unchanged.
func Wrap(d backend.Driver) backend.Driver {
	wrapped := &ReadOnlyDriver{
		Driver: d,
	}

	if _, ok := d.(backend.Directories); ok {
		return &readOnlyHierarchy{
			ReadOnlyDriver: wrapped,
		}
	}

	return wrapped
}

func refused(op, key string) error {
	return &data.PathError{
		Op:   op,
		Path: key,
		Kind: data.ErrUnsupported,
		Err:  ErrReadOnly,
	}
}

func (rod *ReadOnlyDriver) Capabilities() *backend.Capabilities {
	caps := rod.Driver.Capabilities()
	if caps == nil {
		return nil
	}

	filtered := &backend.Capabilities{
		MinChunkSize:  caps.MinChunkSize,
		MaxObjectSize: caps.MaxObjectSize,
	}
	for _, c := range caps.Capabilities {
		if c != backend.CapabilityConditionalWrite && c != backend.CapabilityBatchDelete {
			filtered.Capabilities = append(filtered.Capabilities, c)
		}
	}

	return filtered
}

func (rod *ReadOnlyDriver) Create(ctx context.Context, key string, r io.Reader) (int64, error) {
	return 0, refused("create", key)
}

func (rod *ReadOnlyDriver) Delete(ctx context.Context, key string) error {
	return refused("delete", key)
}

func (rod *ReadOnlyDriver) DeleteMany(ctx context.Context, keys []string) []backend.DeleteResult {
	results := make([]backend.DeleteResult, 0, len(keys))
	for _, key := range keys {
		results = append(results, backend.DeleteResult{
			Key: key,
			Err: refused("delete", key),
		})
	}

	return results
}

func (roh *readOnlyHierarchy) MakeDirectory(ctx context.Context, key string) error {
	return refused("mkdir", key)
}

func (roh *readOnlyHierarchy) RemoveDirectory(ctx context.Context, key string) error {
	return refused("rmdir", key)
}

func (roh *readOnlyHierarchy) RemoveTree(ctx context.Context, key string) error {
	return refused("rmdir", key)
}
