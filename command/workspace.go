package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mwantia/uvfs"
	"github.com/mwantia/uvfs/config"
	"github.com/mwantia/uvfs/data"
	"github.com/mwantia/uvfs/log"
	"github.com/mwantia/uvfs/transfer"
	"github.com/spf13/afero"
)

// Workspace is a set of named sessions commands operate on.
type Workspace struct {
	mu       sync.RWMutex
	sessions map[string]vfs.VirtualFileSystem

	copier *transfer.Copier
	host   afero.Fs
	log    *log.Logger
}

func NewWorkspace(host afero.Fs, copier *transfer.Copier, logger *log.Logger) *Workspace {
	if logger == nil {
		logger = log.Discard()
	}

	return &Workspace{
		sessions: make(map[string]vfs.VirtualFileSystem),
		copier:   copier,
		host:     host,
		log:      logger,
	}
}

// OpenWorkspace opens every mount of cfg. If one mount fails, the sessions
// opened so far are closed again.
func OpenWorkspace(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...vfs.VirtualFileSystemOption) (*Workspace, error) {
	copier, err := transfer.NewCopier(transfer.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	ws := NewWorkspace(afero.NewOsFs(), copier, logger)
	opts = append([]vfs.VirtualFileSystemOption{vfs.WithLogger(logger)}, opts...)

	for _, name := range cfg.MountNames() {
		fs, err := cfg.Mounts[name].Open(ctx, opts...)
		if err != nil {
			ws.Close(ctx)
			return nil, fmt.Errorf("failed to open mount '%s': %w", name, err)
		}

		if err := ws.Mount(name, fs); err != nil {
			fs.Close(ctx)
			ws.Close(ctx)
			return nil, err
		}
	}

	return ws, nil
}

// Mount adds fs under name.
func (w *Workspace) Mount(name string, fs vfs.VirtualFileSystem) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.sessions[name]; exists {
		return fmt.Errorf("%w: mount '%s' already exists", data.ErrConflict, name)
	}

	w.sessions[name] = fs
	w.log.Debug("Mounted '%s' (%s, %s)", name, fs.Kind(), fs.Strategy())
	return nil
}

// Close closes every session and reports all failures.
func (w *Workspace) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	errs := &data.Errors{}
	for name, fs := range w.sessions {
		if err := fs.Close(ctx); err != nil {
			errs.Add(fmt.Errorf("failed to close mount '%s': %w", name, err))
		}
		delete(w.sessions, name)
	}

	return errs.Errors()
}

func (w *Workspace) Sessions() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.sessions))
	for name := range w.sessions {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func (w *Workspace) Session(name string) (vfs.VirtualFileSystem, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	fs, exists := w.sessions[name]
	return fs, exists
}

func (w *Workspace) Resolve(target string) (vfs.VirtualFileSystem, vfs.VirtualPath, error) {
	name, path, found := strings.Cut(target, ":")
	if !found {
		names := w.Sessions()
		if len(names) != 1 {
			return nil, vfs.VirtualPath{}, fmt.Errorf("%w: target '%s' must name a mount as 'mount:/path'", data.ErrInvalid, target)
		}
		name, path = names[0], target
	}

	fs, exists := w.Session(name)
	if !exists {
		return nil, vfs.VirtualPath{}, fmt.Errorf("%w: unknown mount '%s'", data.ErrInvalid, name)
	}

	return fs, fs.Path(path), nil
}

func (w *Workspace) Copier() *transfer.Copier {
	return w.copier
}

func (w *Workspace) Host() afero.Fs {
	return w.host
}

func (w *Workspace) Logger() *log.Logger {
	return w.log
}
