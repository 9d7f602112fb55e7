package oauth

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"fetcher.dev/cli/internal/core/domain"
)

// Refresh exchanges a refresh token for a new access token.
// The returned token keeps refreshToken when the provider does not rotate it.
func (r *Runner) Refresh(ctx context.Context, refreshToken string) (*domain.Token, error) {
	if refreshToken == "" {
		return nil, domain.ErrNoRefreshToken
	}

	// An expired token forces the source to hit the token endpoint
	stale := &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Now().Add(-time.Minute)}
	tok, err := r.provider.Config().TokenSource(r.clientContext(ctx), stale).Token()
	if err != nil {
		return nil, r.tokenEndpointError("token refresh", err)
	}

	refreshed := domain.NewToken(tok.AccessToken, tok.RefreshToken, tok.Expiry, time.Now())
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = refreshToken
	}
	r.logger.Info("access token refreshed", zap.Time("expiry", refreshed.Expiry))
	return refreshed, nil
}
