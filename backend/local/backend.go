package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/data"
	"github.com/spf13/afero"
)

const Kind = "local"

func init() {
	backend.Register(Kind, func(cfg backend.Config) (backend.Driver, error) {
		var config LocalConfig
		if err := cfg.Decode(&config); err != nil {
			return nil, err
		}
		if config.Path == "" {
			return nil, fmt.Errorf("%w: 'path' is required", data.ErrInvalid)
		}

		osfs := afero.NewOsFs()
		if config.Create {
			if err := osfs.MkdirAll(config.Path, 0755); err != nil {
				return nil, err
			}
		}

		return NewLocalBackend(afero.NewBasePathFs(osfs, config.Path)), nil
	})
}

type LocalConfig struct {
	// Directory on the local disk used as root
	Path string `mapstructure:"path"`
	// Create the root directory if it does not exist yet
	Create bool `mapstructure:"create"`
}

// LocalBackend stores files on any afero filesystem, usually a base path
// restricted view of the local disk.
type LocalBackend struct {
	fs afero.Fs
}

func NewLocalBackend(fs afero.Fs) *LocalBackend {
	return &LocalBackend{
		fs: fs,
	}
}

// Returns the identifier name defined for this backend
func (*LocalBackend) Name() string {
	return Kind
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (lb *LocalBackend) Open(ctx context.Context) error {
	info, err := lb.fs.Stat("/")
	if err != nil {
		return fmt.Errorf("root unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root is not a directory: %w", data.ErrNotDirectory)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (lb *LocalBackend) Close(ctx context.Context) error {
	return nil
}

// Capabilities returns a list of capabilities supported by this backend.
func (lb *LocalBackend) Capabilities() *backend.Capabilities {
	return &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityHierarchy,
			backend.CapabilityConditionalWrite,
			backend.CapabilityModifyTime,
			backend.CapabilityStreaming,
		},
	}
}

func resolvePath(key string) string {
	return "/" + key
}

func mapError(op, key string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &data.PathError{Op: op, Path: key, Kind: data.ErrNotExist, Err: err}
	case errors.Is(err, fs.ErrExist):
		return &data.PathError{Op: op, Path: key, Kind: data.ErrConflict, Err: err}
	case errors.Is(err, fs.ErrInvalid):
		return &data.PathError{Op: op, Path: key, Kind: data.ErrInvalid, Err: err}
	default:
		return data.IOFailure(op, key, err)
	}
}

func toEntry(key string, info os.FileInfo) *data.Entry {
	entry := &data.Entry{
		Key:        key,
		Kind:       data.KindFile,
		Size:       info.Size(),
		ModifyTime: info.ModTime(),
	}

	if info.IsDir() {
		entry.Kind = data.KindDirectory
		entry.Size = 0
	} else {
		entry.ContentType = data.ContentTypeOf(key)
	}

	return entry
}
