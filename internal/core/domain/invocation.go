package domain

import (
	"strings"
)

// Invocation is one request to run a plugin command
type Invocation struct {
	Plugin  string
	Command string
	Args    []string
}

// ParseInvocation builds an invocation from CLI arguments: plugin, optional command, then positional args
func ParseInvocation(argv []string) (Invocation, error) {
	if len(argv) == 0 || argv[0] == "" {
		return Invocation{}, &UsageError{Usage: "fetcher <plugin> [command] [args...]"}
	}
	inv := Invocation{Plugin: argv[0]}
	if len(argv) > 1 {
		inv.Command = argv[1]
		inv.Args = append([]string(nil), argv[2:]...)
	}
	return inv, nil
}

// IsHealthCheck reports whether the command is the reserved connectivity check
func (i Invocation) IsHealthCheck() bool {
	return i.Command == "test" || i.Command == "check"
}

// ToolName joins a plugin and command into an agent-facing tool name
func ToolName(plugin, command string) string {
	return plugin + "_" + command
}

// SplitToolName splits a tool name at the first underscore.
// Plugin names never contain underscores, command names may.
func SplitToolName(name string) (plugin, command string, ok bool) {
	plugin, command, ok = strings.Cut(name, "_")
	if !ok || plugin == "" || command == "" {
		return "", "", false
	}
	return plugin, command, true
}
