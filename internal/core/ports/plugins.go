package ports

import (
	"context"
	"io"
	"time"

	"fetcher.dev/cli/internal/core/domain"
)

// Plugin wraps one remote service behind a uniform command interface
type Plugin interface {
	// Name returns the registry name of the plugin
	Name() string

	// Description returns a one-line summary
	Description() string

	// Commands returns the immutable command table
	Commands() *domain.CommandTable

	// ListCommands writes the command listing to out
	ListCommands(out io.Writer)

	// Test performs a connectivity and credential check
	Test(ctx context.Context, out io.Writer) error

	// Run executes a command with positional arguments
	Run(ctx context.Context, command string, args []string, out io.Writer) error
}

// Authenticatable is implemented by plugins that obtain tokens through an OAuth flow
type Authenticatable interface {
	Plugin

	// Login forces a fresh authorization and persists the resulting token
	Login(ctx context.Context, out io.Writer) error

	// Logout removes the persisted token
	Logout(ctx context.Context) error

	// AuthStatus describes the persisted token without contacting the service
	AuthStatus(ctx context.Context) AuthStatus
}

// AuthStatus is a snapshot of a plugin's persisted token
type AuthStatus struct {
	Authenticated   bool
	Expiry          time.Time
	HasRefreshToken bool
}

// PluginRegistry holds the plugins that loaded successfully
type PluginRegistry interface {
	// Get retrieves a plugin by name
	Get(name string) (Plugin, bool)

	// Names returns registered plugin names in sorted order
	Names() []string

	// Plugins returns the registered plugins in name order
	Plugins() []Plugin
}

// Environment resolves configuration values such as credentials
type Environment interface {
	Lookup(key string) (string, bool)
}

// TokenStore persists tokens under a per-plugin key prefix
type TokenStore interface {
	// Load returns the stored token or nil when none exists
	Load(ctx context.Context, prefix string) (*domain.Token, error)

	// Save upserts the token
	Save(ctx context.Context, prefix string, token *domain.Token) error

	// Clear removes the stored token
	Clear(ctx context.Context, prefix string) error
}
