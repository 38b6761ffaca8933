package transfer

import (
	"context"
	"fmt"

	"github.com/mwantia/uvfs"
	"github.com/mwantia/uvfs/log"
)

// DefaultBufferSize is the smallest read buffer used when streaming a file.
const DefaultBufferSize = 64 * 1024

// SameSessionHook may copy src to dst without streaming the bytes through the
// process. It reports whether it handled the copy; on false the copier falls
// back to streaming.
type SameSessionHook func(ctx context.Context, fs vfs.VirtualFileSystem, src *vfs.VirtualFile, dst vfs.VirtualPath) (bool, error)

// ProgressFunc receives an Event after every copied entry.
type ProgressFunc func(e Event)

type CopierOptions struct {
	Logger     *log.Logger
	BufferSize int
	Verify     bool
	Progress   ProgressFunc
	Hook       SameSessionHook
}

type CopierOption func(*CopierOptions) error

func newDefaultCopierOptions() *CopierOptions {
	return &CopierOptions{
		BufferSize: DefaultBufferSize,
	}
}

func WithLogger(logger *log.Logger) CopierOption {
	return func(opts *CopierOptions) error {
		opts.Logger = logger
		return nil
	}
}

// WithBufferSize raises the lower bound of the streaming buffer.
func WithBufferSize(size int) CopierOption {
	return func(opts *CopierOptions) error {
		if size <= 0 {
			return fmt.Errorf("%w: buffer size must be positive, got %d", vfs.ErrInvalid, size)
		}
		opts.BufferSize = size
		return nil
	}
}

// WithVerify re-reads every written file and compares its checksum with the
// streamed bytes.
func WithVerify() CopierOption {
	return func(opts *CopierOptions) error {
		opts.Verify = true
		return nil
	}
}

func WithProgress(fn ProgressFunc) CopierOption {
	return func(opts *CopierOptions) error {
		opts.Progress = fn
		return nil
	}
}

// WithSameSessionHook installs a hook that is only consulted when source and
// destination belong to the same session.
func WithSameSessionHook(hook SameSessionHook) CopierOption {
	return func(opts *CopierOptions) error {
		opts.Hook = hook
		return nil
	}
}
