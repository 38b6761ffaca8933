package vfs

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/mwantia/uvfs/backend"
	"github.com/mwantia/uvfs/backend/instrument"
	"github.com/mwantia/uvfs/backend/readonly"
	"github.com/mwantia/uvfs/data"
	"github.com/mwantia/uvfs/directory"
	"github.com/mwantia/uvfs/log"
)

// VirtualFileSystem is an open connection to one backend exposing a uniform
// filesystem contract. All data operations require the session to be open
// and fail with ErrClosed otherwise. A session is safe for concurrent use.
type VirtualFileSystem interface {
	// ID returns the handle paths of this session refer to.
	ID() SessionID
	// Kind returns the registered kind of the underlying driver.
	Kind() string

	// Open connects the backend. A session can be opened only once.
	Open(ctx context.Context) error
	// Close releases the backend exactly once; further calls are no-ops.
	Close(ctx context.Context) error
	// IsClosed reports true before Open and after Close.
	IsClosed() bool

	// Root returns the root path, which always resolves to a directory.
	Root() VirtualPath
	// Path returns the canonical path for abs within this session.
	Path(abs string) VirtualPath

	Capabilities() *backend.Capabilities
	Strategy() directory.Type

	// Exists reports whether anything is stored at p. The root always exists.
	Exists(ctx context.Context, p VirtualPath) (bool, error)
	// Resolve returns what is stored at p, or nil without error if nothing is.
	Resolve(ctx context.Context, p VirtualPath) (*VirtualFile, error)
	// List returns the children of the directory p sorted by path.
	List(ctx context.Context, p VirtualPath) ([]*VirtualFile, error)
	// Mkdir creates the directory p, whose parent must be an existing directory.
	// An existing directory at p is returned as is.
	Mkdir(ctx context.Context, p VirtualPath) (*VirtualFile, error)
	// MkFile creates the file p with the content of r. It fails if anything
	// exists at p and never closes r.
	MkFile(ctx context.Context, p VirtualPath, r io.Reader) (*VirtualFile, error)
	// RmFile removes the file p.
	RmFile(ctx context.Context, p VirtualPath) error
	// Rmdir removes the directory p. Without recursive, p must be empty.
	Rmdir(ctx context.Context, p VirtualPath, recursive bool) error
	// OpenRead opens the content of f. The caller closes the stream.
	OpenRead(ctx context.Context, f *VirtualFile) (io.ReadCloser, error)
	// Walk visits p and everything beneath it depth-first in pre-order.
	Walk(ctx context.Context, p VirtualPath, fn WalkFunc) error
}

type sessionState int

const (
	stateConstructed sessionState = iota
	stateOpen
	stateClosed
)

type virtualFileSystemImpl struct {
	mu    sync.RWMutex
	state sessionState

	id       SessionID
	driver   backend.Driver
	strategy directory.Strategy
	locks    *keyLocks
	readOnly bool
	log      *log.Logger
}

// NewVirtualFileSystem builds an unopened session on top of driver.
func NewVirtualFileSystem(driver backend.Driver, opts ...VirtualFileSystemOption) (VirtualFileSystem, error) {
	options := newDefaultVirtualFileSystemOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConstruction, err)
		}
	}

	if options.ReadOnly {
		driver = readonly.Wrap(driver)
	}

	if options.Registerer != nil {
		metrics, err := instrument.NewMetrics(options.Registerer)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to register metrics: %w", ErrConstruction, err)
		}
		driver = instrument.Wrap(driver, metrics)
	}

	strategy, err := directory.New(options.Directories, driver)
	if err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = log.Discard()
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConstruction, err)
	}

	return &virtualFileSystemImpl{
		state:    stateConstructed,
		id:       SessionID(id.String()),
		driver:   driver,
		strategy: strategy,
		locks:    newKeyLocks(),
		readOnly: options.ReadOnly,
		log:      logger.Named(driver.Name()),
	}, nil
}

func (v *virtualFileSystemImpl) ID() SessionID {
	return v.id
}

func (v *virtualFileSystemImpl) Kind() string {
	return v.driver.Name()
}

func (v *virtualFileSystemImpl) Open(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.state {
	case stateOpen:
		return nil
	case stateClosed:
		return ErrClosed
	}

	if err := v.driver.Open(ctx); err != nil {
		v.state = stateClosed
		if closeErr := v.driver.Close(ctx); closeErr != nil {
			v.log.Warn("Failed to release driver after open failure: %v", closeErr)
		}
		return fmt.Errorf("%w: %s: %w", ErrConstruction, v.driver.Name(), err)
	}

	v.state = stateOpen
	register(v)

	v.log.Info("Session %s opened with %s directories", v.id, v.strategy.Type())
	return nil
}

func (v *virtualFileSystemImpl) Close(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == stateClosed {
		return nil
	}

	wasOpen := v.state == stateOpen
	v.state = stateClosed
	unregister(v.id)

	if err := v.driver.Close(ctx); err != nil {
		return fmt.Errorf("failed to close %s driver: %w", v.driver.Name(), err)
	}

	if wasOpen {
		v.log.Info("Session %s closed", v.id)
	}
	return nil
}

func (v *virtualFileSystemImpl) IsClosed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.state != stateOpen
}

func (v *virtualFileSystemImpl) Root() VirtualPath {
	return VirtualPath{session: v.id, path: "/"}
}

func (v *virtualFileSystemImpl) Path(abs string) VirtualPath {
	return NewPath(v.id, abs)
}

func (v *virtualFileSystemImpl) Capabilities() *backend.Capabilities {
	return v.driver.Capabilities()
}

func (v *virtualFileSystemImpl) Strategy() directory.Type {
	return v.strategy.Type()
}

// check verifies that the session is open and p belongs to it.
func (v *virtualFileSystemImpl) check(op string, p VirtualPath) error {
	v.mu.RLock()
	state := v.state
	v.mu.RUnlock()

	if state != stateOpen {
		return pathError(op, p, ErrClosed)
	}

	if p.Session() != v.id {
		return &PathMismatchError{Op: op, Path: p.String(), Session: v.id, Owner: p.Session()}
	}

	return nil
}

// checkWritable is check for operations that modify the backend.
func (v *virtualFileSystemImpl) checkWritable(op string, p VirtualPath) error {
	if err := v.check(op, p); err != nil {
		return err
	}
	if v.readOnly {
		return &data.PathError{Op: op, Path: p.String(), Kind: ErrUnsupported, Err: readonly.ErrReadOnly}
	}

	return nil
}

// PathMismatchError is returned when a path of another session is used.
type PathMismatchError struct {
	Op      string
	Path    string
	Session SessionID
	Owner   SessionID
}

func (e *PathMismatchError) Error() string {
	return fmt.Sprintf("%s %s: path belongs to session '%s', not '%s'", e.Op, e.Path, e.Owner, e.Session)
}

func (e *PathMismatchError) Unwrap() error {
	return ErrInvalid
}
