// Package pluginkit holds the scaffolding shared by the built-in service plugins.
package pluginkit

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
)

// TestCommand is the reserved connectivity check present in every plugin
const TestCommand = "test"

// TestFunc performs a plugin's connectivity check
type TestFunc func(ctx context.Context, out io.Writer) error

// Base implements ports.Plugin on top of a command table
type Base struct {
	name        string
	description string
	table       *domain.CommandTable
	test        TestFunc
}

// NewBase builds a plugin whose table starts with the test command followed by commands
func NewBase(name, description string, test TestFunc, commands ...domain.Command) (*Base, error) {
	if test == nil {
		return nil, fmt.Errorf("plugin '%s' has no test function", name)
	}

	all := make([]domain.Command, 0, len(commands)+1)
	all = append(all, domain.Command{
		Name:        TestCommand,
		Description: "Test the connection and credentials",
		Usage:       TestCommand,
		Handler: func(ctx context.Context, _ []string, out io.Writer) error {
			return test(ctx, out)
		},
	})
	all = append(all, commands...)

	table, err := domain.NewCommandTable(all...)
	if err != nil {
		return nil, fmt.Errorf("plugin '%s': %w", name, err)
	}

	return &Base{
		name:        name,
		description: description,
		table:       table,
		test:        test,
	}, nil
}

// Name returns the registry name
func (b *Base) Name() string { return b.name }

// Description returns the one-line summary
func (b *Base) Description() string { return b.description }

// Commands returns the command table
func (b *Base) Commands() *domain.CommandTable { return b.table }

// ListCommands writes the command listing
func (b *Base) ListCommands(out io.Writer) {
	fmt.Fprintf(out, "Available commands for %s:\n", b.name)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, cmd := range b.table.Commands() {
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		fmt.Fprintf(w, "  %s\t%s\n", usage, cmd.Description)
	}
	w.Flush()
}

// Test runs the connectivity check
func (b *Base) Test(ctx context.Context, out io.Writer) error {
	return b.test(ctx, out)
}

// Run executes a command after checking its minimum argument count
func (b *Base) Run(ctx context.Context, command string, args []string, out io.Writer) error {
	cmd, ok := b.table.Lookup(command)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCommand, command)
	}
	if len(args) < cmd.MinArgs {
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		fmt.Fprintf(out, "Usage: fetcher %s %s\n", b.name, usage)
		return &domain.UsageError{Command: cmd.Name, Usage: usage}
	}
	return cmd.Handler(ctx, args, out)
}

var _ ports.Plugin = (*Base)(nil)
