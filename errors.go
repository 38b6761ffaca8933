package vfs

import "github.com/mwantia/uvfs/data"

// Errors returned by sessions. They are the same values as in package data,
// so errors.Is works with either.
var (
	ErrConstruction = data.ErrConstruction
	ErrClosed       = data.ErrClosed
	ErrIO           = data.ErrIO
	ErrUnsupported  = data.ErrUnsupported
	ErrNotExist     = data.ErrNotExist
	ErrConflict     = data.ErrConflict
	ErrNotDirectory = data.ErrNotDirectory
	ErrNotFile      = data.ErrNotFile
	ErrIsDirectory  = data.ErrIsDirectory
	ErrInvalid      = data.ErrInvalid
)

func pathError(op string, p VirtualPath, kind error) error {
	return &data.PathError{Op: op, Path: p.String(), Kind: kind}
}

func wrapError(op string, p VirtualPath, err error) error {
	return data.NewPathError(op, p.String(), err)
}
