// Package builtin contains the commands shipped with uvfs.
package builtin

import (
	"context"
	"fmt"

	"github.com/mwantia/uvfs"
	"github.com/mwantia/uvfs/command"
	"github.com/mwantia/uvfs/data"
)

// All returns every builtin command.
func All() []command.Command {
	return []command.Command{
		&LsCommand{},
		&StatCommand{},
		&MkdirCommand{},
		&RmCommand{},
		&CatCommand{},
		&PutCommand{},
		&CpCommand{},
		&MvCommand{},
		&FindCommand{},
	}
}

func usageError(format string, args ...any) (int, error) {
	return command.ExitUsage, fmt.Errorf("%w: %s", data.ErrInvalid, fmt.Sprintf(format, args...))
}

// resolveFile parses target and resolves it to an existing file.
func resolveFile(ctx context.Context, api command.API, target string) (vfs.VirtualFileSystem, *vfs.VirtualFile, error) {
	fs, p, err := api.Resolve(target)
	if err != nil {
		return nil, nil, err
	}

	f, err := fs.Resolve(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	if f == nil {
		return nil, nil, &data.PathError{Op: "resolve", Path: target, Kind: data.ErrNotExist}
	}

	return fs, f, nil
}
