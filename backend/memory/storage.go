package memory

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

func (mb *MemoryBackend) Stat(ctx context.Context, key string) (*data.Entry, error) {
	mb.store.mu.RLock()
	defer mb.store.mu.RUnlock()

	obj, exists := mb.store.objects.Get(key)
	if !exists {
		return nil, data.ErrNotExist
	}

	return &data.Entry{
		Key:         key,
		Kind:        data.KindFile,
		Size:        int64(len(obj.data)),
		ModifyTime:  obj.modTime,
		ContentType: data.ContentTypeOf(key),
	}, nil
}

func (mb *MemoryBackend) List(ctx context.Context, dir string, recursive bool) ([]*data.Entry, error) {
	mb.store.mu.RLock()
	defer mb.store.mu.RUnlock()

	listing := backend.NewListing(dir, recursive)
	prefix := listing.Prefix()

	mb.store.objects.Ascend(prefix, func(key string, obj *object) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}

		listing.Add(key, int64(len(obj.data)), obj.modTime)
		return true
	})

	return listing.Entries(), nil
}

func (mb *MemoryBackend) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	mb.store.mu.RLock()
	defer mb.store.mu.RUnlock()

	obj, exists := mb.store.objects.Get(key)
	if !exists {
		return nil, data.ErrNotExist
	}

	// Stored slices are never mutated after creation
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (mb *MemoryBackend) Create(ctx context.Context, key string, r io.Reader) (int64, error) {
	buffer, err := io.ReadAll(r)
	if err != nil {
		return 0, data.IOFailure("create", key, err)
	}

	mb.store.mu.Lock()
	defer mb.store.mu.Unlock()

	if _, exists := mb.store.objects.Get(key); exists {
		return 0, data.ErrConflict
	}

	mb.store.objects.Set(key, &object{
		data:    buffer,
		modTime: time.Now(),
	})

	return int64(len(buffer)), nil
}

func (mb *MemoryBackend) Delete(ctx context.Context, key string) error {
	mb.store.mu.Lock()
	defer mb.store.mu.Unlock()

	if _, exists := mb.store.objects.Delete(key); !exists {
		return data.ErrNotExist
	}

	return nil
}

func (mb *MemoryBackend) DeleteMany(ctx context.Context, keys []string) []backend.DeleteResult {
	mb.store.mu.Lock()
	defer mb.store.mu.Unlock()

	results := make([]backend.DeleteResult, 0, len(keys))
	for _, key := range keys {
		result := backend.DeleteResult{Key: key}
		if _, exists := mb.store.objects.Delete(key); !exists {
			result.Err = data.ErrNotExist
		}

		results = append(results, result)
	}

	return results
}
