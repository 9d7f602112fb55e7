package httpinfra

import (
	"context"
	"fmt"
	"net/http"

	"fetcher.dev/cli/internal/infrastructure/auth"
)

// Authenticator attaches credentials to outgoing requests
type Authenticator interface {
	// Apply sets credentials on req
	Apply(ctx context.Context, req *http.Request) error

	// Reauthenticate is called after a 401. It reports whether new credentials were
	// obtained and the request is worth repeating.
	Reauthenticate(ctx context.Context) (bool, error)
}

// BearerAuth sends OAuth access tokens from a token cache
type BearerAuth struct {
	Tokens *auth.TokenCache
}

// Apply sets the Authorization header with a valid token
func (a BearerAuth) Apply(ctx context.Context, req *http.Request) error {
	token, err := a.Tokens.GetOrRefresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to get authentication token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return nil
}

// Reauthenticate discards the rejected token and obtains a new one
func (a BearerAuth) Reauthenticate(ctx context.Context) (bool, error) {
	a.Tokens.Invalidate()
	if _, err := a.Tokens.ForceRefresh(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// HeaderAuth sends a static header. An empty value sends nothing.
type HeaderAuth struct {
	Name  string
	Value string
}

// Apply sets the header when a value is configured
func (a HeaderAuth) Apply(ctx context.Context, req *http.Request) error {
	if a.Value != "" {
		req.Header.Set(a.Name, a.Value)
	}
	return nil
}

// Reauthenticate always declines; static credentials cannot be renewed
func (a HeaderAuth) Reauthenticate(ctx context.Context) (bool, error) {
	return false, nil
}

// QueryAuth sends static credentials as query parameters
type QueryAuth struct {
	Params map[string]string
}

// Apply adds the parameters to the request URL
func (a QueryAuth) Apply(ctx context.Context, req *http.Request) error {
	q := req.URL.Query()
	for k, v := range a.Params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()
	return nil
}

// Reauthenticate always declines; static credentials cannot be renewed
func (a QueryAuth) Reauthenticate(ctx context.Context) (bool, error) {
	return false, nil
}
