package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/uvfs"
	"github.com/mwantia/uvfs/command"
	"github.com/mwantia/uvfs/transfer"
)

type CpCommand struct {
}

func (c *CpCommand) Name() string {
	return "cp"
}

func (c *CpCommand) Description() string {
	return "Copy files and directories between mounts"
}

func (c *CpCommand) Usage() string {
	return "cp [-v] [--verify] <mount:/src> <mount:/dst>"
}

func (c *CpCommand) Execute(ctx context.Context, api command.API, args *command.CommandArgs, w io.Writer) (int, error) {
	return transferFiles(ctx, api, args, w, "cp", (*transfer.Copier).Copy)
}

func (c *CpCommand) GetFlags() *command.CommandFlagSet {
	return transferFlags()
}

type transferFunc func(c *transfer.Copier, ctx context.Context, src *vfs.VirtualFile, dst vfs.VirtualPath) (*transfer.Stats, error)

func transferFiles(ctx context.Context, api command.API, args *command.CommandArgs, w io.Writer, name string, fn transferFunc) (int, error) {
	if len(args.Args) != 2 {
		return usageError("%s requires a source and a destination", name)
	}

	_, src, err := resolveFile(ctx, api, args.Args[0])
	if err != nil {
		return command.ExitFailure, err
	}
	_, dst, err := api.Resolve(args.Args[1])
	if err != nil {
		return command.ExitFailure, err
	}

	copier := api.Copier()
	if verbose, verify := args.Bool("verbose"), args.Bool("verify"); verbose || verify {
		opts := []transfer.CopierOption{
			transfer.WithLogger(api.Logger()),
		}
		if verify {
			opts = append(opts, transfer.WithVerify())
		}
		if verbose {
			opts = append(opts, transfer.WithProgress(func(e transfer.Event) {
				fmt.Fprintf(w, "%s -> %s\n", e.Source, e.Destination)
			}))
		}

		if copier, err = transfer.NewCopier(opts...); err != nil {
			return command.ExitFailure, err
		}
	}

	stats, err := fn(copier, ctx, src, dst)
	if err != nil {
		return command.ExitFailure, err
	}

	if args.Bool("verbose") {
		fmt.Fprintf(w, "%d files, %d directories, %s\n", stats.Files, stats.Directories, humanize.IBytes(uint64(stats.Bytes)))
	}

	return command.ExitSuccess, nil
}

func transferFlags() *command.CommandFlagSet {
	return &command.CommandFlagSet{
		Flags: map[string]*command.CommandFlag{
			"verbose": {
				Name:        "verbose",
				Short:       "v",
				Type:        "bool",
				Description: "Print every copied entry and a summary",
			},
			"verify": {
				Name:        "verify",
				Type:        "bool",
				Description: "Re-read every copied file and compare checksums",
			},
		},
	}
}
