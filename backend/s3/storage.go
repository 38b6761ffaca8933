package s3

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

func (sb *S3Backend) Stat(ctx context.Context, key string) (*data.Entry, error) {
	info, err := sb.client.StatObject(ctx, sb.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, mapError("stat", key, err)
	}

	return &data.Entry{
		Key:         key,
		Kind:        data.KindFile,
		Size:        info.Size,
		ModifyTime:  info.LastModified,
		ContentType: info.ContentType,
		ETag:        info.ETag,
	}, nil
}

func (sb *S3Backend) List(ctx context.Context, dir string, recursive bool) ([]*data.Entry, error) {
	listing := backend.NewListing(dir, recursive)

	// Non-recursive listings return common prefixes as keys ending with "/"
	objects := sb.client.ListObjects(ctx, sb.bucketName, minio.ListObjectsOptions{
		Prefix:    listing.Prefix(),
		Recursive: recursive,
	})

	for object := range objects {
		if object.Err != nil {
			return nil, mapError("list", dir, object.Err)
		}

		listing.Add(object.Key, object.Size, object.LastModified)
	}

	return listing.Entries(), nil
}

func (sb *S3Backend) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := sb.client.GetObject(ctx, sb.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError("open", key, err)
	}

	// GetObject is lazy; surface a missing key before handing out the stream
	if _, err := object.Stat(); err != nil {
		object.Close()
		return nil, mapError("open", key, err)
	}

	return object, nil
}

func (sb *S3Backend) Create(ctx context.Context, key string, r io.Reader) (int64, error) {
	if _, err := sb.Stat(ctx, key); err == nil {
		return 0, data.ErrConflict
	} else if !errors.Is(err, data.ErrNotExist) {
		return 0, err
	}

	// Buffer one part plus a byte to learn whether a single put suffices
	head, err := io.ReadAll(io.LimitReader(r, minPartSize+1))
	if err != nil {
		return 0, data.IOFailure("create", key, err)
	}

	opts := putOptions(key)
	if len(head) <= minPartSize {
		info, err := sb.client.PutObject(ctx, sb.bucketName, key, bytes.NewReader(head), int64(len(head)), opts)
		if err != nil {
			return 0, mapError("create", key, err)
		}
		return info.Size, nil
	}

	// Multipart completion drops the precondition, so larger objects rely on
	// the stat above and the last writer wins a race.
	info, err := sb.client.PutObject(ctx, sb.bucketName, key, io.MultiReader(bytes.NewReader(head), r), -1, opts)
	if err != nil {
		return 0, mapError("create", key, err)
	}

	return info.Size, nil
}

// putOptions asks the store to reject the put when key already exists.
func putOptions(key string) minio.PutObjectOptions {
	opts := minio.PutObjectOptions{
		ContentType: data.ContentTypeOf(key),
		PartSize:    minPartSize,
	}
	opts.SetMatchETagExcept("*")

	return opts
}

func (sb *S3Backend) Delete(ctx context.Context, key string) error {
	if err := sb.client.RemoveObject(ctx, sb.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return mapError("delete", key, err)
	}

	return nil
}

// DeleteMany issues batched multi-object deletes. Keys that are not reported
// as failed were removed.
func (sb *S3Backend) DeleteMany(ctx context.Context, keys []string) []backend.DeleteResult {
	objects := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objects <- minio.ObjectInfo{Key: key}
	}
	close(objects)

	failed := make(map[string]error)
	for removeErr := range sb.client.RemoveObjects(ctx, sb.bucketName, objects, minio.RemoveObjectsOptions{}) {
		failed[removeErr.ObjectName] = mapError("delete", removeErr.ObjectName, removeErr.Err)
	}

	results := make([]backend.DeleteResult, 0, len(keys))
	for _, key := range keys {
		results = append(results, backend.DeleteResult{
			Key: key,
			Err: failed[key],
		})
	}

	return results
}
