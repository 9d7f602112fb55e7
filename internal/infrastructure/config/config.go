package config

import (
	"time"
)

const (
	TokenStoreEnvFile = "env"
	TokenStoreKeyring = "keyring"
)

// Config is the runtime configuration of the fetcher CLI
type Config struct {
	// EnvFile holds credentials and persisted OAuth tokens
	EnvFile string `yaml:"env_file"`

	LogLevel      string `yaml:"log_level"`
	ServeLogLevel string `yaml:"serve_log_level"`
	Debug         bool   `yaml:"debug"`

	// TokenStore selects where OAuth tokens are persisted: env or keyring
	TokenStore string `yaml:"token_store"`

	OAuthTimeout time.Duration `yaml:"oauth_timeout"`
	OpenBrowser  bool          `yaml:"open_browser"`

	HTTPTimeout time.Duration `yaml:"http_timeout"`
	HTTPRetries int           `yaml:"http_retries"`

	DisabledPlugins []string `yaml:"disabled_plugins"`
}

// Default returns the configuration used when no file or override is present
func Default() *Config {
	return &Config{
		EnvFile:       ".env",
		LogLevel:      "warn",
		ServeLogLevel: "info",
		TokenStore:    TokenStoreEnvFile,
		OAuthTimeout:  300 * time.Second,
		OpenBrowser:   true,
		HTTPTimeout:   30 * time.Second,
		HTTPRetries:   2,
	}
}

// IsDisabled reports whether a plugin was disabled in configuration
func (c *Config) IsDisabled(plugin string) bool {
	for _, name := range c.DisabledPlugins {
		if name == plugin {
			return true
		}
	}
	return false
}
