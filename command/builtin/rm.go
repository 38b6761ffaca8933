package builtin

import (
	"context"
	"io"

	"github.com/mwantia/uvfs/command"
)

type RmCommand struct {
}

func (r *RmCommand) Name() string {
	return "rm"
}

func (r *RmCommand) Description() string {
	return "Remove files or directories"
}

func (r *RmCommand) Usage() string {
	return "rm [-r] <mount:/path>..."
}

func (r *RmCommand) Execute(ctx context.Context, api command.API, args *command.CommandArgs, w io.Writer) (int, error) {
	if len(args.Args) == 0 {
		return usageError("rm requires at least one target")
	}

	for _, target := range args.Args {
		fs, f, err := resolveFile(ctx, api, target)
		if err != nil {
			return command.ExitFailure, err
		}

		// Without -r only empty directories are removed
		if f.IsDir() {
			err = fs.Rmdir(ctx, f.Path(), args.Bool("recursive"))
		} else {
			err = fs.RmFile(ctx, f.Path())
		}
		if err != nil {
			return command.ExitFailure, err
		}
	}

	return command.ExitSuccess, nil
}

func (r *RmCommand) GetFlags() *command.CommandFlagSet {
	return &command.CommandFlagSet{
		Flags: map[string]*command.CommandFlag{
			"recursive": {
				Name:        "recursive",
				Short:       "r",
				Type:        "bool",
				Description: "Remove directories and their contents",
			},
		},
	}
}
