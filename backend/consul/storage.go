package consul

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

// Consul allows at most 64 operations per transaction
const maxTxnOps = 64

// The KV pair flags carry the modification time in unix seconds.
func modifyTime(pair *api.KVPair) time.Time {
	if pair.Flags == 0 {
		return time.Time{}
	}

	return time.Unix(int64(pair.Flags), 0)
}

func (cb *ConsulBackend) Stat(ctx context.Context, key string) (*data.Entry, error) {
	q := (&api.QueryOptions{}).WithContext(ctx)

	pair, _, err := cb.kv.Get(cb.buildKey(key), q)
	if err != nil {
		return nil, data.IOFailure("stat", key, err)
	}
	if pair == nil {
		return nil, data.ErrNotExist
	}

	return &data.Entry{
		Key:         key,
		Kind:        data.KindFile,
		Size:        int64(len(pair.Value)),
		ModifyTime:  modifyTime(pair),
		ContentType: data.ContentTypeOf(key),
	}, nil
}

func (cb *ConsulBackend) List(ctx context.Context, dir string, recursive bool) ([]*data.Entry, error) {
	listing := backend.NewListing(dir, recursive)
	q := (&api.QueryOptions{}).WithContext(ctx)

	pairs, _, err := cb.kv.List(cb.buildKey(listing.Prefix()), q)
	if err != nil {
		return nil, data.IOFailure("list", dir, err)
	}

	for _, pair := range pairs {
		listing.Add(cb.objectKey(pair.Key), int64(len(pair.Value)), modifyTime(pair))
	}

	return listing.Entries(), nil
}

func (cb *ConsulBackend) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	q := (&api.QueryOptions{}).WithContext(ctx)

	pair, _, err := cb.kv.Get(cb.buildKey(key), q)
	if err != nil {
		return nil, data.IOFailure("open", key, err)
	}
	if pair == nil {
		return nil, data.ErrNotExist
	}

	return io.NopCloser(bytes.NewReader(pair.Value)), nil
}

// Create uses a check-and-set with index 0, which only succeeds if the key does not exist yet.
func (cb *ConsulBackend) Create(ctx context.Context, key string, r io.Reader) (int64, error) {
	limit := cb.Capabilities().MaxObjectSize

	value, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return 0, data.IOFailure("create", key, err)
	}
	if int64(len(value)) > limit {
		return 0, data.IOFailure("create", key, fmt.Errorf("object exceeds max object size of %d bytes", limit))
	}

	w := (&api.WriteOptions{}).WithContext(ctx)
	ok, _, err := cb.kv.CAS(&api.KVPair{
		Key:         cb.buildKey(key),
		Value:       value,
		Flags:       uint64(time.Now().Unix()),
		ModifyIndex: 0,
	}, w)
	if err != nil {
		return 0, data.IOFailure("create", key, err)
	}
	if !ok {
		return 0, data.ErrConflict
	}

	return int64(len(value)), nil
}

func (cb *ConsulBackend) Delete(ctx context.Context, key string) error {
	q := (&api.QueryOptions{}).WithContext(ctx)

	consulKey := cb.buildKey(key)
	pair, _, err := cb.kv.Get(consulKey, q)
	if err != nil {
		return data.IOFailure("delete", key, err)
	}
	if pair == nil {
		return data.ErrNotExist
	}

	// Only delete the revision that was just inspected
	w := (&api.WriteOptions{}).WithContext(ctx)
	ok, _, err := cb.kv.DeleteCAS(pair, w)
	if err != nil {
		return data.IOFailure("delete", key, err)
	}
	if !ok {
		return data.ErrConflict
	}

	return nil
}

// DeleteMany deletes keys through KV transactions of up to 64 operations each.
func (cb *ConsulBackend) DeleteMany(ctx context.Context, keys []string) []backend.DeleteResult {
	results := make([]backend.DeleteResult, 0, len(keys))
	q := (&api.QueryOptions{}).WithContext(ctx)

	for start := 0; start < len(keys); start += maxTxnOps {
		chunk := keys[start:min(start+maxTxnOps, len(keys))]

		ops := make(api.TxnOps, 0, len(chunk))
		for _, key := range chunk {
			ops = append(ops, &api.TxnOp{
				KV: &api.KVTxnOp{
					Verb: api.KVDelete,
					Key:  cb.buildKey(key),
				},
			})
		}

		ok, resp, _, err := cb.client.Txn().Txn(ops, q)
		if err == nil && !ok {
			err = fmt.Errorf("transaction rolled back")
			if resp != nil && len(resp.Errors) > 0 {
				err = fmt.Errorf("transaction rolled back: %s", resp.Errors[0].What)
			}
		}

		for _, key := range chunk {
			result := backend.DeleteResult{Key: key}
			if err != nil {
				result.Err = data.IOFailure("delete", key, err)
			}
			results = append(results, result)
		}
	}

	return results
}
