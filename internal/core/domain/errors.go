package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnknownPlugin is returned when no registered plugin matches the invocation
	ErrUnknownPlugin = errors.New("unknown plugin")
	// ErrUnknownCommand is returned when the plugin has no such command
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMissingCredentials marks plugins that cannot be constructed from the environment
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrUnauthorized is matched by any HTTP 401 error
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotAuthenticatable is returned for auth operations on plugins without an OAuth flow
	ErrNotAuthenticatable = errors.New("plugin does not support authentication")

	ErrAuthorizationTimeout = errors.New("authorization timed out")
	ErrAuthorizationDenied  = errors.New("authorization denied")
	ErrStateMismatch        = errors.New("oauth state mismatch")
	ErrNoRefreshToken       = errors.New("no refresh token available")
)

// ConfigError reports required environment variables that are absent
type ConfigError struct {
	Plugin  string
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: missing required environment variables: %s", e.Plugin, strings.Join(e.Missing, ", "))
}

// Is matches ErrMissingCredentials
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingCredentials
}

// HTTPError is a non-success response from a remote service
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// Is matches ErrUnauthorized for 401 responses
func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// UsageError reports a command invoked with missing or malformed arguments
type UsageError struct {
	Command string
	Usage   string
}

func (e *UsageError) Error() string {
	if e.Command == "" {
		return "usage: " + e.Usage
	}
	return fmt.Sprintf("%s: usage: %s", e.Command, e.Usage)
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an HTTP error
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
