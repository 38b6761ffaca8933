package command

import (
	"context"
	"io"

	"github.com/mwantia/uvfs"
	"github.com/mwantia/uvfs/log"
	"github.com/mwantia/uvfs/transfer"
	"github.com/spf13/afero"
)

// API is what commands see of a workspace.
type API interface {
	// Sessions returns the names of all mounted sessions in sorted order.
	Sessions() []string

	// Session returns the session mounted as name.
	Session(name string) (vfs.VirtualFileSystem, bool)

	// Resolve parses a target of the form "mount:/path". The mount may be
	// omitted when exactly one session is mounted.
	Resolve(target string) (vfs.VirtualFileSystem, vfs.VirtualPath, error)

	// Copier returns the copy engine shared by cp and mv.
	Copier() *transfer.Copier

	// Host returns the filesystem put reads local files from.
	Host() afero.Fs

	// Logger returns the workspace logger.
	Logger() *log.Logger
}

// Command represents an executable command within a workspace.
type Command interface {
	// Name returns the command identifier
	Name() string

	// Description returns human-readable help text
	Description() string

	// Usage returns a usage string for help (e.g. "ls -lh [target]")
	Usage() string

	// Execute runs the command with parsed arguments
	// The writer parameter is where command output should be written
	// Returns exit code (0 = success) and error message
	Execute(ctx context.Context, api API, args *CommandArgs, writer io.Writer) (int, error)

	// GetFlags returns the flag set for this command (this is optional)
	GetFlags() *CommandFlagSet
}

// Exit codes returned by commands.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)
