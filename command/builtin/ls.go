package builtin

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/uvfs"
	"github.com/mwantia/uvfs/command"
)

type LsCommand struct {
}

// Name returns the command identifier
func (ls *LsCommand) Name() string {
	return "ls"
}

// Description returns human-readable help text
func (ls *LsCommand) Description() string {
	return "List directory contents"
}

// Usage returns a usage string for help
func (ls *LsCommand) Usage() string {
	return "ls [-lh] <mount:/path>"
}

// Execute runs the command with parsed arguments
// Returns exit code (0 = success) and error message
func (ls *LsCommand) Execute(ctx context.Context, api command.API, args *command.CommandArgs, w io.Writer) (int, error) {
	if len(args.Args) > 1 {
		return usageError("ls takes at most one target")
	}

	target := "/"
	if len(args.Args) == 1 {
		target = args.Args[0]
	}

	fs, f, err := resolveFile(ctx, api, target)
	if err != nil {
		return command.ExitFailure, err
	}

	files := []*vfs.VirtualFile{f}
	if f.IsDir() {
		if files, err = fs.List(ctx, f.Path()); err != nil {
			return command.ExitFailure, err
		}
	}

	long, human := args.Bool("long"), args.Bool("human")
	for _, file := range files {
		name := file.Name()
		if file.IsDir() {
			name += "/"
		}

		if !long {
			fmt.Fprintln(w, name)
			continue
		}

		fmt.Fprintf(w, "%s %10s %s %s\n", kindFlag(file), formatSize(file.Size(), human), formatTime(file.ModifyTime()), name)
	}

	return command.ExitSuccess, nil
}

// GetFlags returns the flag set for this command
func (ls *LsCommand) GetFlags() *command.CommandFlagSet {
	return &command.CommandFlagSet{
		Flags: map[string]*command.CommandFlag{
			"long": {
				Name:        "long",
				Short:       "l",
				Type:        "bool",
				Description: "Use a long listing format",
			},
			"human": {
				Name:        "human",
				Short:       "h",
				Type:        "bool",
				Description: "Print sizes in human readable format",
			},
		},
	}
}

func kindFlag(f *vfs.VirtualFile) string {
	if f.IsDir() {
		return "d"
	}
	return "-"
}

func formatSize(size int64, human bool) string {
	if human {
		return humanize.IBytes(uint64(size))
	}
	return strconv.FormatInt(size, 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
