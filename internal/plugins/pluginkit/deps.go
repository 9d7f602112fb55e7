package pluginkit

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
	"fetcher.dev/cli/internal/infrastructure/auth"
	"fetcher.dev/cli/internal/infrastructure/config"
	httpinfra "fetcher.dev/cli/internal/infrastructure/http"
	"fetcher.dev/cli/internal/infrastructure/oauth"
	"fetcher.dev/cli/internal/infrastructure/tokenstore"
)

// Deps are the shared services handed to every plugin factory
type Deps struct {
	Env          ports.Environment
	Tokens       ports.TokenStore
	Logger       *zap.Logger
	HTTPTimeout  time.Duration
	HTTPRetries  int
	OAuthTimeout time.Duration
	// Opener launches the browser for OAuth flows; nil selects the system browser
	Opener oauth.Opener
	// PromptOut receives OAuth prompts; it must never be stdout while serving RPC
	PromptOut io.Writer
}

// Factory constructs a plugin. It fails with a *domain.ConfigError when credentials are absent.
type Factory func(deps Deps) (ports.Plugin, error)

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Lookup returns the environment value for key, or "" when unset
func (d Deps) Lookup(key string) string {
	if d.Env == nil {
		return ""
	}
	v, _ := d.Env.Lookup(key)
	return v
}

// LookupOr returns the environment value for key or fallback
func (d Deps) LookupOr(key, fallback string) string {
	if v := d.Lookup(key); v != "" {
		return v
	}
	return fallback
}

// BaseURL resolves a service root from key, validating overrides
func (d Deps) BaseURL(plugin, key, fallback string) (string, error) {
	raw := d.LookupOr(key, fallback)
	if err := config.ValidateBaseURL(raw); err != nil {
		return "", fmt.Errorf("%s: invalid %s: %w", plugin, key, err)
	}
	return raw, nil
}

// Require resolves all keys, failing with the complete list of missing ones
func (d Deps) Require(plugin string, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	var missing []string
	for _, key := range keys {
		v := d.Lookup(key)
		if v == "" {
			missing = append(missing, key)
			continue
		}
		values[key] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &domain.ConfigError{Plugin: plugin, Missing: missing}
	}
	return values, nil
}

// NewClient creates a service client with the configured timeout, retries and logger
func (d Deps) NewClient(plugin, baseURL string, a httpinfra.Authenticator, opts ...httpinfra.Option) *httpinfra.Client {
	all := []httpinfra.Option{
		httpinfra.WithTimeout(d.HTTPTimeout),
		httpinfra.WithRetries(d.HTTPRetries),
		httpinfra.WithLogger(d.logger().Named(plugin)),
	}
	return httpinfra.New(baseURL, a, append(all, opts...)...)
}

// NewTokenCache wires an OAuth runner and token cache for provider. probe verifies stored tokens.
func (d Deps) NewTokenCache(prefix string, provider oauth.Provider, tokenClient *httpinfra.Client, probe auth.Prober) *auth.TokenCache {
	logger := d.logger().Named(provider.Name)
	runner := oauth.NewRunner(provider,
		oauth.WithTimeout(d.OAuthTimeout),
		oauth.WithOpener(d.Opener),
		oauth.WithHTTPClient(tokenClient.StandardClient()),
		oauth.WithLogger(logger),
	)

	out := d.PromptOut
	if out == nil {
		out = os.Stderr
	}
	var tokens ports.TokenStore = tokenstore.NewMemoryStore()
	if d.Tokens != nil {
		tokens = d.Tokens
	}
	cache := auth.NewTokenCache(prefix, tokens, runner, probe,
		auth.WithPromptOutput(out),
		auth.WithCacheLogger(logger),
	)
	return cache
}

// BearerProbe returns a prober that requests endpoint with the candidate token. Any
// non-2xx answer rejects the token.
func (d Deps) BearerProbe(plugin, baseURL, endpoint string) auth.Prober {
	return func(ctx context.Context, accessToken string) error {
		client := d.NewClient(plugin, baseURL, httpinfra.HeaderAuth{Name: "Authorization", Value: "Bearer " + accessToken},
			httpinfra.WithRetries(0))
		return client.Get(ctx, endpoint, nil, nil)
	}
}
