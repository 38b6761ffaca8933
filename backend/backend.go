package backend

import (
	"context"
	"io"

	"github.com/mwantia/uvfs/data"
)

// Driver is the primitive operation contract every storage backend implements.
// Keys are relative, slash separated and never carry a leading slash; the empty
// key addresses the root of the backend.
type Driver interface {
	// Returns the kind name this driver was registered with
	Name() string
	// Open connects to the backend and verifies that its root is usable.
	Open(ctx context.Context) error
	// Close releases the backend connection.
	Close(ctx context.Context) error

	// Capabilities describes what this driver supports natively.
	Capabilities() *Capabilities

	// Stat returns the entry stored at key or data.ErrNotExist.
	// Flat drivers only report objects; directories are never stat-able there.
	Stat(ctx context.Context, key string) (*data.Entry, error)
	// List returns the entries below dir, sorted by key. Non-recursive listings
	// collapse deeper keys into directory entries; stored keys ending with a
	// slash are reported as directory entries with the slash trimmed.
	List(ctx context.Context, dir string, recursive bool) ([]*data.Entry, error)
	// OpenRead opens the object at key for streaming. The caller closes it.
	OpenRead(ctx context.Context, key string) (io.ReadCloser, error)
	// Create writes r into a new object at key and returns the committed size.
	// It fails with data.ErrConflict if key already exists and never closes r.
	Create(ctx context.Context, key string, r io.Reader) (int64, error)
	// Delete removes the single object at key.
	Delete(ctx context.Context, key string) error
	// DeleteMany removes every key best effort and reports one result per key.
	DeleteMany(ctx context.Context, keys []string) []DeleteResult
}

// Directories is implemented by hierarchical drivers with real directories.
type Directories interface {
	// MakeDirectory creates the directory key, whose parent must exist.
	MakeDirectory(ctx context.Context, key string) error
	// RemoveDirectory removes the empty directory key.
	RemoveDirectory(ctx context.Context, key string) error
	// RemoveTree removes key and everything beneath it.
	RemoveTree(ctx context.Context, key string) error
}

// DeleteResult reports the outcome of deleting one key in a batch.
type DeleteResult struct {
	Key string
	Err error
}

// ObjectKey returns the stored key behind e. Directory entries of flat
// drivers are backed by a marker object whose key ends with a slash.
func ObjectKey(e *data.Entry) string {
	if e.Kind.IsDir() {
		return e.Key + "/"
	}

	return e.Key
}

// DeleteEach implements DeleteMany on top of single deletes for drivers
// without a native batch primitive.
func DeleteEach(ctx context.Context, d Driver, keys []string) []DeleteResult {
	results := make([]DeleteResult, 0, len(keys))
	for _, key := range keys {
		results = append(results, DeleteResult{
			Key: key,
			Err: d.Delete(ctx, key),
		})
	}

	return results
}

// JoinResults aggregates the failures of a batch delete into one error.
func JoinResults(results []DeleteResult) error {
	errs := &data.Errors{}
	for _, result := range results {
		if result.Err != nil {
			errs.Add(data.NewPathError("delete", result.Key, result.Err))
		}
	}

	return errs.Errors()
}
