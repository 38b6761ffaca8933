package builtin

import (
	"context"
	"io"

	"github.com/mwantia/uvfs"
	"github.com/mwantia/uvfs/command"
)

type MkdirCommand struct {
}

func (m *MkdirCommand) Name() string {
	return "mkdir"
}

func (m *MkdirCommand) Description() string {
	return "Create directories"
}

func (m *MkdirCommand) Usage() string {
	return "mkdir [-p] <mount:/path>..."
}

func (m *MkdirCommand) Execute(ctx context.Context, api command.API, args *command.CommandArgs, w io.Writer) (int, error) {
	if len(args.Args) == 0 {
		return usageError("mkdir requires at least one target")
	}

	for _, target := range args.Args {
		fs, p, err := api.Resolve(target)
		if err != nil {
			return command.ExitFailure, err
		}

		if args.Bool("parents") {
			err = mkdirAll(ctx, fs, p)
		} else {
			_, err = fs.Mkdir(ctx, p)
		}
		if err != nil {
			return command.ExitFailure, err
		}
	}

	return command.ExitSuccess, nil
}

func (m *MkdirCommand) GetFlags() *command.CommandFlagSet {
	return &command.CommandFlagSet{
		Flags: map[string]*command.CommandFlag{
			"parents": {
				Name:        "parents",
				Short:       "p",
				Type:        "bool",
				Description: "Create missing parent directories",
			},
		},
	}
}

// mkdirAll creates p and every missing ancestor, top down.
func mkdirAll(ctx context.Context, fs vfs.VirtualFileSystem, p vfs.VirtualPath) error {
	if p.IsRoot() {
		return nil
	}

	if err := mkdirAll(ctx, fs, p.Back()); err != nil {
		return err
	}

	_, err := fs.Mkdir(ctx, p)
	return err
}
