package vfs

import (
	"context"
	"sync"

	"github.com/mwantia/uvfs/backend"
)

var (
	sessionsMu sync.RWMutex
	sessions   = make(map[SessionID]VirtualFileSystem)
)

func register(s VirtualFileSystem) {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()

	sessions[s.ID()] = s
}

func unregister(id SessionID) {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()

	delete(sessions, id)
}

// Lookup returns the open session a path or file refers to.
func Lookup(id SessionID) (VirtualFileSystem, bool) {
	sessionsMu.RLock()
	defer sessionsMu.RUnlock()

	s, exists := sessions[id]
	return s, exists
}

// Open constructs the driver registered as kind from cfg, wraps it into a
// session and opens it. Any failure is reported as ErrConstruction and no
// session is returned.
func Open(ctx context.Context, kind string, cfg backend.Config, opts ...VirtualFileSystemOption) (VirtualFileSystem, error) {
	driver, err := backend.New(kind, cfg)
	if err != nil {
		return nil, err
	}

	fs, err := NewVirtualFileSystem(driver, opts...)
	if err != nil {
		driver.Close(ctx)
		return nil, err
	}

	// A failed open already released the driver
	if err := fs.Open(ctx); err != nil {
		return nil, err
	}

	return fs, nil
}
