package config

import (
	"fmt"
	"net/url"
)

// Validate checks a resolved configuration
func Validate(cfg *Config) error {
	switch cfg.TokenStore {
	case TokenStoreEnvFile, TokenStoreKeyring:
	default:
		return fmt.Errorf("unsupported token store: %s (must be %s or %s)", cfg.TokenStore, TokenStoreEnvFile, TokenStoreKeyring)
	}

	if cfg.OAuthTimeout <= 0 {
		return fmt.Errorf("oauth timeout must be positive")
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if cfg.HTTPRetries < 0 {
		return fmt.Errorf("http retries cannot be negative")
	}
	return nil
}

// ValidateBaseURL validates a service base URL override
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (must be http or https)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must include host")
	}
	return nil
}
