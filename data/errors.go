package data

import (
	"errors"
	"fmt"
	"sync"
)

// Error taxonomy shared by sessions, strategies and drivers.
var (
	// Session construction errors
	ErrConstruction = errors.New("vfs: session construction failed")
	ErrClosed       = errors.New("vfs: session is closed")

	// Primitive backend errors
	ErrIO          = errors.New("vfs: i/o failure")
	ErrUnsupported = errors.New("vfs: operation unsupported by backend")

	// Entity errors
	ErrNotExist     = errors.New("vfs: file does not exist")
	ErrConflict     = errors.New("vfs: conflicting entity")
	ErrNotDirectory = errors.New("vfs: not a directory")
	ErrNotFile      = errors.New("vfs: not a file")
	ErrIsDirectory  = errors.New("vfs: is a directory")

	// Argument errors
	ErrInvalid = errors.New("vfs: invalid argument")
)

// PathError records the failed operation, the path it was applied to,
// the taxonomy kind of the failure and the underlying cause.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *PathError) Error() string {
	if e.Err == nil || e.Err == e.Kind {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}

	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the taxonomy kind and the cause to errors.Is and errors.As.
func (e *PathError) Unwrap() []error {
	if e.Err == nil || e.Err == e.Kind {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// NewPathError wraps err with op and path. The kind is taken over from err
// when it already carries one of the taxonomy sentinels, otherwise ErrIO is used.
func NewPathError(op, path string, err error) error {
	if err == nil {
		return nil
	}

	return &PathError{
		Op:   op,
		Path: path,
		Kind: KindOf(err),
		Err:  err,
	}
}

// IOFailure marks err as a primitive operation failure on key.
func IOFailure(op, key string, err error) error {
	return &PathError{
		Op:   op,
		Path: key,
		Kind: ErrIO,
		Err:  err,
	}
}

// KindOf returns the taxonomy sentinel err belongs to, defaulting to ErrIO.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrConstruction,
		ErrClosed,
		ErrUnsupported,
		ErrNotExist,
		ErrConflict,
		ErrNotDirectory,
		ErrNotFile,
		ErrIsDirectory,
		ErrInvalid,
		ErrIO,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return ErrIO
}

// Errors collects multiple failures, e.g. from a batch delete.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.errors)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
