package domain

import (
	"context"
	"fmt"
	"io"
)

// ParamType is the JSON type accepted for a command parameter
type ParamType string

const (
	ParamString         ParamType = "string"
	ParamNumber         ParamType = "number"
	ParamStringOrNumber ParamType = "string|number"
)

// Param describes one positional argument of a command, in order
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     string
}

// Handler executes a command with positional arguments, writing human-readable text to out
type Handler func(ctx context.Context, args []string, out io.Writer) error

// Command is an entry of a plugin's command table
type Command struct {
	Name        string
	Description string
	Usage       string
	Params      []Param
	// MinArgs is the number of positional arguments the handler requires
	MinArgs int
	Handler Handler
}

// CommandTable is the ordered, immutable set of commands a plugin exposes
type CommandTable struct {
	order  []string
	byName map[string]Command
}

// NewCommandTable builds a table preserving declaration order.
// Names must be non-empty and unique and every command needs a handler.
func NewCommandTable(commands ...Command) (*CommandTable, error) {
	table := &CommandTable{
		order:  make([]string, 0, len(commands)),
		byName: make(map[string]Command, len(commands)),
	}
	for _, cmd := range commands {
		if cmd.Name == "" {
			return nil, fmt.Errorf("command name cannot be empty")
		}
		if cmd.Handler == nil {
			return nil, fmt.Errorf("command '%s' has no handler", cmd.Name)
		}
		if _, exists := table.byName[cmd.Name]; exists {
			return nil, fmt.Errorf("duplicate command '%s'", cmd.Name)
		}
		cmd.Params = append([]Param(nil), cmd.Params...)
		table.order = append(table.order, cmd.Name)
		table.byName[cmd.Name] = cmd
	}
	return table, nil
}

// MustCommandTable is NewCommandTable for statically declared tables
func MustCommandTable(commands ...Command) *CommandTable {
	table, err := NewCommandTable(commands...)
	if err != nil {
		panic(err)
	}
	return table
}

// Lookup returns the command registered under name
func (t *CommandTable) Lookup(name string) (Command, bool) {
	cmd, ok := t.byName[name]
	return cmd, ok
}

// Names returns command names in declaration order
func (t *CommandTable) Names() []string {
	return append([]string(nil), t.order...)
}

// Commands returns the commands in declaration order
func (t *CommandTable) Commands() []Command {
	out := make([]Command, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byName[name])
	}
	return out
}

// Len returns the number of commands
func (t *CommandTable) Len() int {
	return len(t.order)
}

// Arg returns the positional argument at i or fallback when absent
func Arg(args []string, i int, fallback string) string {
	if i < len(args) && args[i] != "" {
		return args[i]
	}
	return fallback
}
