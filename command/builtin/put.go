package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/uvfs/command"
)

type PutCommand struct {
}

func (p *PutCommand) Name() string {
	return "put"
}

func (p *PutCommand) Description() string {
	return "Upload a local file"
}

func (p *PutCommand) Usage() string {
	return "put <local-file> <mount:/path>"
}

func (p *PutCommand) Execute(ctx context.Context, api command.API, args *command.CommandArgs, w io.Writer) (int, error) {
	if len(args.Args) != 2 {
		return usageError("put requires a local file and a target")
	}

	fs, target, err := api.Resolve(args.Args[1])
	if err != nil {
		return command.ExitFailure, err
	}

	file, err := api.Host().Open(args.Args[0])
	if err != nil {
		return command.ExitFailure, fmt.Errorf("failed to open local file: %w", err)
	}
	defer file.Close()

	f, err := fs.MkFile(ctx, target, file)
	if err != nil {
		return command.ExitFailure, err
	}

	if args.Bool("verbose") {
		fmt.Fprintf(w, "%s -> %s (%s)\n", args.Args[0], f.Path(), humanize.IBytes(uint64(f.Size())))
	}

	return command.ExitSuccess, nil
}

func (p *PutCommand) GetFlags() *command.CommandFlagSet {
	return &command.CommandFlagSet{
		Flags: map[string]*command.CommandFlag{
			"verbose": {
				Name:        "verbose",
				Short:       "v",
				Type:        "bool",
				Description: "Print the uploaded file",
			},
		},
	}
}
