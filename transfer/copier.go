// Package transfer copies files and directory trees between sessions,
// including sessions backed by different drivers.
package transfer

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/mwantia/uvfs"
	"github.com/mwantia/uvfs/data"
	"github.com/mwantia/uvfs/log"
)

// Stats summarizes a finished or aborted copy.
type Stats struct {
	Files       int
	Directories int
	Bytes       int64
}

// Event describes one copied entry.
type Event struct {
	Source      vfs.VirtualPath
	Destination vfs.VirtualPath
	Kind        data.FileKind
	Bytes       int64
}

// Copier streams content from one session into another. A Copier holds no
// state between calls and may be shared.
type Copier struct {
	bufferSize int
	verify     bool
	progress   ProgressFunc
	hook       SameSessionHook
	log        *log.Logger
}

func NewCopier(opts ...CopierOption) (*Copier, error) {
	options := newDefaultCopierOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	logger := options.Logger
	if logger == nil {
		logger = log.Discard()
	}

	return &Copier{
		bufferSize: options.BufferSize,
		verify:     options.Verify,
		progress:   options.Progress,
		hook:       options.Hook,
		log:        logger.Named("transfer"),
	}, nil
}

// Copy copies src to dst. Directories are copied recursively, creating dst
// first and then every child in listing order. The first failure aborts the
// copy and whatever was already written stays in place.
func (c *Copier) Copy(ctx context.Context, src *vfs.VirtualFile, dst vfs.VirtualPath) (*Stats, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: source file is nil", vfs.ErrInvalid)
	}

	srcFs, err := session("copy", src.Path())
	if err != nil {
		return nil, err
	}
	dstFs, err := session("copy", dst)
	if err != nil {
		return nil, err
	}

	if srcFs.ID() == dstFs.ID() && src.IsDir() && isWithin(dst, src.Path()) {
		return nil, &data.PathError{
			Op:   "copy",
			Path: dst.String(),
			Kind: data.ErrInvalid,
			Err:  fmt.Errorf("destination is inside source '%s'", src.Path()),
		}
	}

	stats := &Stats{}
	job := &copyJob{
		copier: c,
		src:    srcFs,
		dst:    dstFs,
		stats:  stats,
	}

	if err := job.copy(ctx, src, dst); err != nil {
		c.log.Error("Copy of '%s' to '%s' failed: %v", src.Path(), dst, err)
		return stats, err
	}

	c.log.Debug("Copied '%s' to '%s': %d files, %d directories, %d bytes",
		src.Path(), dst, stats.Files, stats.Directories, stats.Bytes)
	return stats, nil
}

// Move copies src to dst and removes src afterwards. The two steps are not
// atomic; a failed removal leaves both copies in place.
func (c *Copier) Move(ctx context.Context, src *vfs.VirtualFile, dst vfs.VirtualPath) (*Stats, error) {
	stats, err := c.Copy(ctx, src, dst)
	if err != nil {
		return stats, err
	}

	srcFs, err := session("move", src.Path())
	if err != nil {
		return stats, err
	}

	if src.IsDir() {
		err = srcFs.Rmdir(ctx, src.Path(), true)
	} else {
		err = srcFs.RmFile(ctx, src.Path())
	}

	return stats, err
}

func session(op string, p vfs.VirtualPath) (vfs.VirtualFileSystem, error) {
	fs, exists := vfs.Lookup(p.Session())
	if !exists {
		return nil, &data.PathError{
			Op:   op,
			Path: p.String(),
			Kind: data.ErrClosed,
		}
	}

	return fs, nil
}

// isWithin reports whether p equals dir or lies beneath it.
func isWithin(p, dir vfs.VirtualPath) bool {
	return data.HasPrefix(p.Key(), dir.Key())
}

type copyJob struct {
	copier *Copier
	src    vfs.VirtualFileSystem
	dst    vfs.VirtualFileSystem
	stats  *Stats
}

func (j *copyJob) copy(ctx context.Context, src *vfs.VirtualFile, dst vfs.VirtualPath) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !src.IsDir() {
		return j.copyFile(ctx, src, dst)
	}

	if _, err := j.dst.Mkdir(ctx, dst); err != nil {
		return err
	}
	j.stats.Directories++
	j.notify(src, dst, 0)

	children, err := j.src.List(ctx, src.Path())
	if err != nil {
		return err
	}

	for _, child := range children {
		if err := j.copy(ctx, child, dst.Join(child.Name())); err != nil {
			return err
		}
	}

	return nil
}

func (j *copyJob) copyFile(ctx context.Context, src *vfs.VirtualFile, dst vfs.VirtualPath) error {
	if j.copier.hook != nil && j.src.ID() == j.dst.ID() {
		handled, err := j.copier.hook(ctx, j.src, src, dst)
		if err != nil {
			return err
		}
		if handled {
			j.stats.Files++
			j.stats.Bytes += src.Size()
			j.notify(src, dst, src.Size())
			return nil
		}
	}

	rc, err := j.src.OpenRead(ctx, src)
	if err != nil {
		return err
	}

	hash := xxhash.New()
	reader := bufio.NewReaderSize(io.TeeReader(rc, hash), j.bufferSize())

	written, err := j.dst.MkFile(ctx, dst, reader)
	// The source stream is released before any error is reported
	rc.Close()
	if err != nil {
		return err
	}

	if j.copier.verify {
		if err := j.verify(ctx, written, hash.Sum64()); err != nil {
			return err
		}
	}

	j.copier.log.Debug("Copied '%s' to '%s' (%d bytes)", src.Path(), dst, written.Size())

	j.stats.Files++
	j.stats.Bytes += written.Size()
	j.notify(src, dst, written.Size())
	return nil
}

// bufferSize honours the chunk size both drivers prefer.
func (j *copyJob) bufferSize() int {
	size := j.copier.bufferSize
	for _, caps := range []int64{
		j.src.Capabilities().MinChunkSize,
		j.dst.Capabilities().MinChunkSize,
	} {
		if int(caps) > size {
			size = int(caps)
		}
	}

	return size
}

func (j *copyJob) verify(ctx context.Context, written *vfs.VirtualFile, expected uint64) error {
	rc, err := j.dst.OpenRead(ctx, written)
	if err != nil {
		return err
	}
	defer rc.Close()

	hash := xxhash.New()
	if _, err := io.Copy(hash, rc); err != nil {
		return data.IOFailure("verify", written.Path().String(), err)
	}

	if actual := hash.Sum64(); actual != expected {
		return data.IOFailure("verify", written.Path().String(),
			fmt.Errorf("checksum mismatch: expected %016x, got %016x", expected, actual))
	}

	return nil
}

func (j *copyJob) notify(src *vfs.VirtualFile, dst vfs.VirtualPath, n int64) {
	if j.copier.progress == nil {
		return
	}

	j.copier.progress(Event{
		Source:      src.Path(),
		Destination: dst,
		Kind:        src.Kind(),
		Bytes:       n,
	})
}
