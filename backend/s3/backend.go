package s3

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
)

const Kind = "s3"

const (
	// Smallest part size accepted for multipart uploads
	minPartSize = 5 * 1024 * 1024
	// Largest object size accepted by S3
	maxObjectSize = 5 * 1024 * 1024 * 1024 * 1024
)

func init() {
	backend.Register(Kind, func(cfg backend.Config) (backend.Driver, error) {
		var config S3Config
		if err := cfg.Decode(&config); err != nil {
			return nil, err
		}
		if config.Endpoint == "" || config.Bucket == "" {
			return nil, fmt.Errorf("%w: 'endpoint' and 'bucket' are required", data.ErrInvalid)
		}

		return NewS3Backend(config)
	})
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// S3Backend stores objects in a single bucket of an S3 compatible store.
// Creates send "If-None-Match: *" so the store rejects an existing key.
// Objects larger than one part are uploaded in multiple parts, which carry
// no precondition; only the preceding stat guards those.
type S3Backend struct {
	client     *minio.Client
	bucketName string
}

func NewS3Backend(config S3Config) (*S3Backend, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Backend{
		client:     client,
		bucketName: config.Bucket,
	}, nil
}

// Returns the identifier name defined for this backend
func (*S3Backend) Name() string {
	return Kind
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (sb *S3Backend) Open(ctx context.Context) error {
	exists, err := sb.client.BucketExists(ctx, sb.bucketName)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("bucket '%s' does not exist: %w", sb.bucketName, data.ErrNotExist)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (sb *S3Backend) Close(ctx context.Context) error {
	return nil
}

// Capabilities returns a list of capabilities supported by this backend.
func (sb *S3Backend) Capabilities() *backend.Capabilities {
	return &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityBatchDelete,
			backend.CapabilityConditionalWrite,
			backend.CapabilityModifyTime,
			backend.CapabilityStreaming,
		},
		MinChunkSize:  minPartSize,
		MaxObjectSize: maxObjectSize,
	}
}

func mapError(op, key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		return &data.PathError{Op: op, Path: key, Kind: data.ErrNotExist, Err: err}
	case "PreconditionFailed":
		return &data.PathError{Op: op, Path: key, Kind: data.ErrConflict, Err: err}
	default:
		return data.IOFailure(op, key, err)
	}
}
