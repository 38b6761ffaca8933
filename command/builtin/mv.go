package builtin

import (
	"context"
	"io"

	"github.com/mwantia/uvfs/command"
	"github.com/mwantia/uvfs/transfer"
)

type MvCommand struct {
}

func (m *MvCommand) Name() string {
	return "mv"
}

func (m *MvCommand) Description() string {
	return "Move files and directories, also across mounts (not atomic)"
}

func (m *MvCommand) Usage() string {
	return "mv [-v] [--verify] <mount:/src> <mount:/dst>"
}

func (m *MvCommand) Execute(ctx context.Context, api command.API, args *command.CommandArgs, w io.Writer) (int, error) {
	return transferFiles(ctx, api, args, w, "mv", (*transfer.Copier).Move)
}

func (m *MvCommand) GetFlags() *command.CommandFlagSet {
	return transferFlags()
}
