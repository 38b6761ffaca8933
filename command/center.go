package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/mwantia/uvfs/data"
)

// CommandCenter dispatches argument vectors to registered commands.
type CommandCenter struct {
	mu       sync.RWMutex
	commands map[string]Command
}

func NewCommandCenter(commands ...Command) *CommandCenter {
	cc := &CommandCenter{
		commands: make(map[string]Command),
	}
	for _, cmd := range commands {
		cc.Register(cmd)
	}

	return cc
}

// Register adds cmd, replacing any command with the same name.
func (cc *CommandCenter) Register(cmd Command) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.commands[cmd.Name()] = cmd
}

func (cc *CommandCenter) Get(name string) (Command, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	cmd, exists := cc.commands[name]
	return cmd, exists
}

// Commands returns all registered commands sorted by name.
func (cc *CommandCenter) Commands() []Command {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	commands := make([]Command, 0, len(cc.commands))
	for _, cmd := range cc.commands {
		commands = append(commands, cmd)
	}
	sort.Slice(commands, func(i, j int) bool {
		return commands[i].Name() < commands[j].Name()
	})

	return commands
}

// Execute runs argv[0] with the remaining arguments. Usage errors return
// ExitUsage, failed commands ExitFailure.
func (cc *CommandCenter) Execute(ctx context.Context, api API, argv []string, w io.Writer) (int, error) {
	if len(argv) == 0 || argv[0] == "help" {
		cc.Help(w)
		return ExitSuccess, nil
	}

	cmd, exists := cc.Get(argv[0])
	if !exists {
		return ExitUsage, fmt.Errorf("%w: unknown command '%s'", data.ErrInvalid, argv[0])
	}

	args, err := NewParser(cmd.GetFlags()).Parse(argv[1:])
	if err != nil {
		return ExitUsage, fmt.Errorf("%s: %w (usage: %s)", cmd.Name(), err, cmd.Usage())
	}

	code, err := cmd.Execute(ctx, api, args, w)
	if err != nil && code == ExitSuccess {
		code = ExitFailure
	}
	if errors.Is(err, data.ErrInvalid) && code == ExitUsage {
		return code, fmt.Errorf("%s: %w (usage: %s)", cmd.Name(), err, cmd.Usage())
	}

	return code, err
}

// Help writes one line per registered command.
func (cc *CommandCenter) Help(w io.Writer) {
	for _, cmd := range cc.Commands() {
		fmt.Fprintf(w, "  %-32s %s\n", cmd.Usage(), cmd.Description())
	}
}
