package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mwantia/uvfs"
	"github.com/mwantia/uvfs/command"
	"github.com/mwantia/uvfs/data"
)

type FindCommand struct {
}

func (f *FindCommand) Name() string {
	return "find"
}

func (f *FindCommand) Description() string {
	return "Search for files in a directory tree"
}

func (f *FindCommand) Usage() string {
	return "find [-n glob] [-p glob] [-t f|d] <mount:/path>"
}

func (f *FindCommand) Execute(ctx context.Context, api command.API, args *command.CommandArgs, w io.Writer) (int, error) {
	if len(args.Args) != 1 {
		return usageError("find requires exactly one target")
	}

	name, path, kind := args.String("name"), args.String("path"), args.String("type")
	for _, pattern := range []string{name, path} {
		if pattern != "" && !doublestar.ValidatePattern(pattern) {
			return usageError("invalid pattern '%s'", pattern)
		}
	}
	if kind != "" && kind != "f" && kind != "d" {
		return usageError("type must be 'f' or 'd', got '%s'", kind)
	}

	fs, root, err := resolveFile(ctx, api, args.Args[0])
	if err != nil {
		return command.ExitFailure, err
	}

	err = fs.Walk(ctx, root.Path(), func(file *vfs.VirtualFile) error {
		if kind == "f" && file.IsDir() || kind == "d" && !file.IsDir() {
			return nil
		}
		if name != "" && !matches(name, file.Name()) {
			return nil
		}
		if path != "" && !matches(path, relative(root.Path(), file.Path())) {
			return nil
		}

		fmt.Fprintln(w, file.Path())
		return nil
	})
	if err != nil {
		return command.ExitFailure, err
	}

	return command.ExitSuccess, nil
}

func (f *FindCommand) GetFlags() *command.CommandFlagSet {
	return &command.CommandFlagSet{
		Flags: map[string]*command.CommandFlag{
			"name": {
				Name:        "name",
				Short:       "n",
				Type:        "string",
				Description: "Match the base name against a glob",
			},
			"path": {
				Name:        "path",
				Short:       "p",
				Type:        "string",
				Description: "Match the path below the target against a glob, '**' crosses directories",
			},
			"type": {
				Name:        "type",
				Short:       "t",
				Type:        "string",
				Description: "Only report files (f) or directories (d)",
			},
		},
	}
}

func matches(pattern, name string) bool {
	ok, _ := doublestar.Match(pattern, name)
	return ok
}

func relative(root, p vfs.VirtualPath) string {
	return data.ToRelativePath(p.Key(), root.Key())
}
