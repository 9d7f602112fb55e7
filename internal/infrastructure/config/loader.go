package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader resolves configuration from defaults, a YAML file and FETCHER_* environment variables
type Loader struct {
	// Path overrides the config file location
	Path string
	// Getenv defaults to os.Getenv
	Getenv func(string) string
}

// NewLoader creates a loader reading the given file path, or the default location when empty
func NewLoader(path string) *Loader {
	return &Loader{Path: path, Getenv: os.Getenv}
}

// DefaultPath returns $XDG_CONFIG_HOME/fetcher/config.yaml
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "fetcher", "config.yaml")
}

// Load builds the configuration. A missing file is not an error.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	path := l.resolvePath()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) getenv(key string) string {
	if l.Getenv == nil {
		return os.Getenv(key)
	}
	return l.Getenv(key)
}

func (l *Loader) resolvePath() string {
	if l.Path != "" {
		return l.Path
	}
	if p := l.getenv("FETCHER_CONFIG"); p != "" {
		return p
	}
	return DefaultPath()
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays FETCHER_* variables onto cfg
func (l *Loader) applyEnv(cfg *Config) error {
	var errs []error
	add := func(key string, apply func(string) error) {
		if v := l.getenv(key); v != "" {
			if err := apply(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}

	add("FETCHER_ENV_FILE", func(s string) error { cfg.EnvFile = s; return nil })
	add("FETCHER_LOG_LEVEL", func(s string) error { cfg.LogLevel = s; return nil })
	add("MCP_LOG_LEVEL", func(s string) error { cfg.ServeLogLevel = s; return nil })
	add("FETCHER_DEBUG", func(s string) error {
		b, err := strconv.ParseBool(s)
		cfg.Debug = b
		return err
	})
	add("FETCHER_TOKEN_STORE", func(s string) error { cfg.TokenStore = s; return nil })
	add("FETCHER_OAUTH_TIMEOUT", func(s string) error {
		d, err := parseSeconds(s)
		cfg.OAuthTimeout = d
		return err
	})
	add("FETCHER_OPEN_BROWSER", func(s string) error {
		b, err := strconv.ParseBool(s)
		cfg.OpenBrowser = b
		return err
	})
	add("FETCHER_HTTP_TIMEOUT", func(s string) error {
		d, err := parseSeconds(s)
		cfg.HTTPTimeout = d
		return err
	})
	add("FETCHER_HTTP_RETRIES", func(s string) error {
		i, err := strconv.Atoi(s)
		cfg.HTTPRetries = i
		return err
	})
	add("FETCHER_DISABLED_PLUGINS", func(s string) error {
		cfg.DisabledPlugins = splitList(s)
		return nil
	})

	return errors.Join(errs...)
}

// parseSeconds accepts a Go duration or a bare number of seconds
func parseSeconds(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
