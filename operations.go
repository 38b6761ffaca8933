package vfs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"slices"
	"time"

	"github.com/mwantia/uvfs/data"
	"github.com/mwantia/uvfs/directory"
)

// WalkFunc is called for every file visited by Walk. Returning fs.SkipDir
// for a directory skips its children.
type WalkFunc func(f *VirtualFile) error

func (v *virtualFileSystemImpl) Exists(ctx context.Context, p VirtualPath) (bool, error) {
	if err := v.check("exists", p); err != nil {
		return false, err
	}

	f, err := v.resolve(ctx, p)
	if err != nil {
		return false, wrapError("exists", p, err)
	}

	return f != nil, nil
}

func (v *virtualFileSystemImpl) Resolve(ctx context.Context, p VirtualPath) (*VirtualFile, error) {
	if err := v.check("resolve", p); err != nil {
		return nil, err
	}

	f, err := v.resolve(ctx, p)
	if err != nil {
		return nil, wrapError("resolve", p, err)
	}

	return f, nil
}

// resolve stats p on the driver first; objects win over directories sharing
// the same key. Anything not stat-able is asked to the directory strategy.
func (v *virtualFileSystemImpl) resolve(ctx context.Context, p VirtualPath) (*VirtualFile, error) {
	if p.IsRoot() {
		return newDirectory(p, time.Time{}), nil
	}

	entry, err := v.driver.Stat(ctx, p.Key())
	if err == nil {
		return newVirtualFile(p, entry), nil
	}
	if !errors.Is(err, data.ErrNotExist) {
		return nil, err
	}

	// Native directories are already reported by Stat
	if v.strategy.Type() == directory.TypeNative {
		return nil, nil
	}

	exists, err := v.strategy.Exists(ctx, p.Key())
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	return newDirectory(p, time.Time{}), nil
}

func (v *virtualFileSystemImpl) List(ctx context.Context, p VirtualPath) ([]*VirtualFile, error) {
	if err := v.check("list", p); err != nil {
		return nil, err
	}

	f, err := v.resolve(ctx, p)
	if err != nil {
		return nil, wrapError("list", p, err)
	}
	if f == nil {
		return nil, pathError("list", p, ErrNotExist)
	}
	if !f.IsDir() {
		return nil, pathError("list", p, ErrNotDirectory)
	}

	entries, err := v.strategy.List(ctx, p.Key())
	if err != nil {
		return nil, wrapError("list", p, err)
	}

	files := make([]*VirtualFile, 0, len(entries))
	for _, entry := range entries {
		files = append(files, newVirtualFile(p.Join(entry.Name()), entry))
	}

	slices.SortFunc(files, func(a, b *VirtualFile) int {
		return a.path.Compare(b.path)
	})

	v.log.Debug("Listed %d entries in '%s'", len(files), p)
	return files, nil
}

// checkParent verifies that the parent of p is an existing directory.
func (v *virtualFileSystemImpl) checkParent(ctx context.Context, op string, p VirtualPath) error {
	parent := p.Back()

	f, err := v.resolve(ctx, parent)
	if err != nil {
		return wrapError(op, parent, err)
	}
	if f == nil {
		return pathError(op, parent, ErrNotExist)
	}
	if !f.IsDir() {
		return pathError(op, parent, ErrNotDirectory)
	}

	return nil
}

func (v *virtualFileSystemImpl) Mkdir(ctx context.Context, p VirtualPath) (*VirtualFile, error) {
	if err := v.checkWritable("mkdir", p); err != nil {
		return nil, err
	}
	// The root exists by definition and cannot be created
	if p.IsRoot() {
		return nil, pathError("mkdir", p, ErrConflict)
	}

	unlock := v.locks.lock(p.Key())
	defer unlock()

	existing, err := v.resolve(ctx, p)
	if err != nil {
		return nil, wrapError("mkdir", p, err)
	}
	if existing != nil {
		if existing.IsDir() {
			return existing, nil
		}
		return nil, pathError("mkdir", p, ErrConflict)
	}

	if err := v.checkParent(ctx, "mkdir", p); err != nil {
		return nil, err
	}

	if err := v.strategy.Make(ctx, p.Key()); err != nil {
		return nil, wrapError("mkdir", p, err)
	}

	v.log.Debug("Created directory '%s'", p)
	return newDirectory(p, time.Now()), nil
}

func (v *virtualFileSystemImpl) MkFile(ctx context.Context, p VirtualPath, r io.Reader) (*VirtualFile, error) {
	if err := v.checkWritable("mkfile", p); err != nil {
		return nil, err
	}
	if p.IsRoot() {
		return nil, pathError("mkfile", p, ErrConflict)
	}

	unlock := v.locks.lock(p.Key())
	defer unlock()

	existing, err := v.resolve(ctx, p)
	if err != nil {
		return nil, wrapError("mkfile", p, err)
	}
	if existing != nil {
		return nil, pathError("mkfile", p, ErrConflict)
	}

	if err := v.checkParent(ctx, "mkfile", p); err != nil {
		return nil, err
	}

	size, err := v.driver.Create(ctx, p.Key(), r)
	if err != nil {
		return nil, wrapError("mkfile", p, err)
	}

	v.log.Debug("Created file '%s' with %d bytes", p, size)

	entry, err := v.driver.Stat(ctx, p.Key())
	if err != nil {
		return nil, wrapError("mkfile", p, err)
	}

	return newVirtualFile(p, entry), nil
}

func (v *virtualFileSystemImpl) RmFile(ctx context.Context, p VirtualPath) error {
	if err := v.checkWritable("rmfile", p); err != nil {
		return err
	}
	if p.IsRoot() {
		return pathError("rmfile", p, ErrNotFile)
	}

	unlock := v.locks.lock(p.Key())
	defer unlock()

	f, err := v.resolve(ctx, p)
	if err != nil {
		return wrapError("rmfile", p, err)
	}
	if f == nil {
		return pathError("rmfile", p, ErrNotExist)
	}
	if f.IsDir() {
		return pathError("rmfile", p, ErrNotFile)
	}

	if err := v.driver.Delete(ctx, p.Key()); err != nil {
		return wrapError("rmfile", p, err)
	}

	v.log.Debug("Removed file '%s'", p)
	return nil
}

func (v *virtualFileSystemImpl) Rmdir(ctx context.Context, p VirtualPath, recursive bool) error {
	if err := v.checkWritable("rmdir", p); err != nil {
		return err
	}
	if p.IsRoot() {
		return pathError("rmdir", p, ErrInvalid)
	}

	unlock := v.locks.lock(p.Key())
	defer unlock()

	f, err := v.resolve(ctx, p)
	if err != nil {
		return wrapError("rmdir", p, err)
	}
	if f == nil {
		return pathError("rmdir", p, ErrNotExist)
	}
	if !f.IsDir() {
		return pathError("rmdir", p, ErrNotDirectory)
	}

	if recursive {
		if err := v.strategy.RemoveAll(ctx, p.Key()); err != nil {
			return wrapError("rmdir", p, err)
		}

		v.log.Debug("Removed directory tree '%s'", p)
		return nil
	}

	children, err := v.strategy.List(ctx, p.Key())
	if err != nil {
		return wrapError("rmdir", p, err)
	}
	if len(children) > 0 {
		return pathError("rmdir", p, ErrConflict)
	}

	if err := v.strategy.Remove(ctx, p.Key()); err != nil {
		return wrapError("rmdir", p, err)
	}

	v.log.Debug("Removed directory '%s'", p)
	return nil
}

func (v *virtualFileSystemImpl) OpenRead(ctx context.Context, f *VirtualFile) (io.ReadCloser, error) {
	if f == nil {
		return nil, ErrInvalid
	}
	if err := v.check("open", f.path); err != nil {
		return nil, err
	}
	if f.IsDir() {
		return nil, pathError("open", f.path, ErrIsDirectory)
	}

	rc, err := v.driver.OpenRead(ctx, f.path.Key())
	if err != nil {
		return nil, wrapError("open", f.path, err)
	}

	return rc, nil
}

func (v *virtualFileSystemImpl) Walk(ctx context.Context, p VirtualPath, fn WalkFunc) error {
	f, err := v.Resolve(ctx, p)
	if err != nil {
		return err
	}
	if f == nil {
		return pathError("walk", p, ErrNotExist)
	}

	err = v.walk(ctx, f, fn)
	if errors.Is(err, fs.SkipDir) || errors.Is(err, fs.SkipAll) {
		return nil
	}

	return err
}

func (v *virtualFileSystemImpl) walk(ctx context.Context, f *VirtualFile, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := fn(f); err != nil {
		return err
	}
	if !f.IsDir() {
		return nil
	}

	children, err := v.List(ctx, f.path)
	if err != nil {
		return err
	}

	for _, child := range children {
		if err := v.walk(ctx, child, fn); err != nil {
			if errors.Is(err, fs.SkipDir) && child.IsDir() {
				continue
			}
			return err
		}
	}

	return nil
}
