package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/uvfs/command"
)

type StatCommand struct {
}

func (s *StatCommand) Name() string {
	return "stat"
}

func (s *StatCommand) Description() string {
	return "Display file status"
}

func (s *StatCommand) Usage() string {
	return "stat <mount:/path>"
}

func (s *StatCommand) Execute(ctx context.Context, api command.API, args *command.CommandArgs, w io.Writer) (int, error) {
	if len(args.Args) != 1 {
		return usageError("stat requires exactly one target")
	}

	fs, f, err := resolveFile(ctx, api, args.Args[0])
	if err != nil {
		return command.ExitFailure, err
	}

	fmt.Fprintf(w, "  Path: %s\n", f.Path())
	fmt.Fprintf(w, "  Kind: %s\n", f.Kind())
	fmt.Fprintf(w, "  Size: %d (%s)\n", f.Size(), humanize.IBytes(uint64(f.Size())))
	if !f.ModifyTime().IsZero() {
		fmt.Fprintf(w, "Modify: %s (%s)\n", formatTime(f.ModifyTime()), humanize.Time(f.ModifyTime()))
	}
	if f.ContentType() != "" {
		fmt.Fprintf(w, "  Type: %s\n", f.ContentType())
	}
	if f.ETag() != "" {
		fmt.Fprintf(w, "  ETag: %s\n", f.ETag())
	}
	fmt.Fprintf(w, " Mount: %s (%s, %s)\n", fs.Kind(), fs.Strategy(), fs.ID())

	return command.ExitSuccess, nil
}

func (s *StatCommand) GetFlags() *command.CommandFlagSet {
	return nil
}
