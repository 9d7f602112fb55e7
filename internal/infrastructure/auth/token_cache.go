package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
)

// Flow obtains tokens interactively or from a refresh token
type Flow interface {
	Run(ctx context.Context, out io.Writer) (*domain.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Token, error)
}

// Prober verifies an access token against the service, typically with a profile request
type Prober func(ctx context.Context, accessToken string) error

// TokenCache owns the token of one OAuth plugin. Refreshes are serialised.
type TokenCache struct {
	prefix string
	store  ports.TokenStore
	flow   Flow
	probe  Prober
	out    io.Writer
	logger *zap.Logger

	mu       sync.Mutex
	current  *domain.Token
	verified bool
}

// CacheOption configures a TokenCache
type CacheOption func(*TokenCache)

// WithPromptOutput sets where the authorization flow writes its prompts
func WithPromptOutput(w io.Writer) CacheOption {
	return func(c *TokenCache) {
		if w != nil {
			c.out = w
		}
	}
}

// WithCacheLogger sets the logger
func WithCacheLogger(l *zap.Logger) CacheOption {
	return func(c *TokenCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewTokenCache creates a cache persisting under prefix. probe may be nil,
// in which case an unexpired token is trusted without contacting the service.
func NewTokenCache(prefix string, store ports.TokenStore, flow Flow, probe Prober, opts ...CacheOption) *TokenCache {
	c := &TokenCache{
		prefix: prefix,
		store:  store,
		flow:   flow,
		probe:  probe,
		out:    os.Stderr,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("tokens").With(zap.String("prefix", prefix))
	return c
}

// IsValid reports whether the stored token is non-empty, unexpired and accepted by the service.
// An expired token is rejected without a probe.
func (c *TokenCache) IsValid(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.validLocked(ctx)
}

// GetOrRefresh returns a valid token, preferring reuse, then the refresh token, then a full flow.
func (c *TokenCache) GetOrRefresh(ctx context.Context) (*domain.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.validLocked(ctx) {
		token := *c.current
		return &token, nil
	}
	return c.renewLocked(ctx)
}

// ForceRefresh discards the in-memory token and obtains a new one
func (c *TokenCache) ForceRefresh(ctx context.Context) (*domain.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.verified = false
	return c.renewLocked(ctx)
}

// Invalidate marks the current access token as rejected. The refresh token is kept.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.verified = false
	if c.current != nil {
		c.current.AccessToken = ""
	}
}

// Login runs the full authorization flow regardless of the stored token
func (c *TokenCache) Login(ctx context.Context) (*domain.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, err := c.flow.Run(ctx, c.out)
	if err != nil {
		return nil, err
	}
	return c.acceptLocked(ctx, token), nil
}

// Logout removes the persisted token
func (c *TokenCache) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = nil
	c.verified = false
	if err := c.store.Clear(ctx, c.prefix); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// Status describes the persisted token without contacting the service
func (c *TokenCache) Status(ctx context.Context) ports.AuthStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, err := c.loadLocked(ctx)
	if err != nil || token == nil {
		return ports.AuthStatus{}
	}
	return ports.AuthStatus{
		Authenticated:   token.IsUsable(),
		Expiry:          token.Expiry,
		HasRefreshToken: token.CanRefresh(),
	}
}

func (c *TokenCache) loadLocked(ctx context.Context) (*domain.Token, error) {
	if c.current != nil {
		return c.current, nil
	}
	token, err := c.store.Load(ctx, c.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	c.current = token
	return token, nil
}

func (c *TokenCache) validLocked(ctx context.Context) bool {
	token, err := c.loadLocked(ctx)
	if err != nil {
		c.logger.Warn("token store unavailable", zap.Error(err))
		return false
	}
	if !token.IsUsable() {
		return false
	}
	if c.verified || c.probe == nil {
		return true
	}
	if err := c.probe(ctx, token.AccessToken); err != nil {
		c.logger.Debug("stored token rejected by probe", zap.Error(err))
		return false
	}
	c.verified = true
	return true
}

func (c *TokenCache) renewLocked(ctx context.Context) (*domain.Token, error) {
	stored, err := c.loadLocked(ctx)
	if err != nil {
		c.logger.Warn("token store unavailable", zap.Error(err))
	}

	if stored.CanRefresh() {
		refreshed, err := c.flow.Refresh(ctx, stored.RefreshToken)
		if err == nil {
			return c.acceptLocked(ctx, refreshed), nil
		}
		c.logger.Warn("token refresh failed, starting authorization", zap.Error(err))
	}

	token, err := c.flow.Run(ctx, c.out)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	return c.acceptLocked(ctx, token), nil
}

// acceptLocked installs a freshly issued token and persists it
func (c *TokenCache) acceptLocked(ctx context.Context, token *domain.Token) *domain.Token {
	merged := c.current.Merge(token)
	c.current = merged
	c.verified = true

	if err := c.store.Save(ctx, c.prefix, merged); err != nil {
		c.logger.Warn("failed to persist token", zap.Error(err))
	}

	out := *merged
	return &out
}
