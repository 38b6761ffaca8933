package builtin

import (
	"context"
	"io"

	"github.com/mwantia/uvfs/command"
)

type CatCommand struct {
}

func (c *CatCommand) Name() string {
	return "cat"
}

func (c *CatCommand) Description() string {
	return "Print file contents"
}

func (c *CatCommand) Usage() string {
	return "cat <mount:/path>..."
}

func (c *CatCommand) Execute(ctx context.Context, api command.API, args *command.CommandArgs, w io.Writer) (int, error) {
	if len(args.Args) == 0 {
		return usageError("cat requires at least one target")
	}

	for _, target := range args.Args {
		fs, f, err := resolveFile(ctx, api, target)
		if err != nil {
			return command.ExitFailure, err
		}

		rc, err := fs.OpenRead(ctx, f)
		if err != nil {
			return command.ExitFailure, err
		}

		_, err = io.Copy(w, rc)
		rc.Close()
		if err != nil {
			return command.ExitFailure, err
		}
	}

	return command.ExitSuccess, nil
}

func (c *CatCommand) GetFlags() *command.CommandFlagSet {
	return nil
}
