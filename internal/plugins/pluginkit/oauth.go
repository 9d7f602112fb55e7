package pluginkit

import (
	"context"
	"fmt"
	"io"
	"time"

	"fetcher.dev/cli/internal/core/ports"
	"fetcher.dev/cli/internal/infrastructure/auth"
)

// OAuthSupport provides the login, logout and status operations of an OAuth plugin
type OAuthSupport struct {
	Tokens *auth.TokenCache
}

// Login forces a fresh authorization
func (o OAuthSupport) Login(ctx context.Context, out io.Writer) error {
	token, err := o.Tokens.Login(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Authorization complete. Token valid until %s\n", token.Expiry.Local().Format(time.RFC1123))
	return nil
}

// Logout removes the persisted token
func (o OAuthSupport) Logout(ctx context.Context) error {
	return o.Tokens.Logout(ctx)
}

// AuthStatus describes the persisted token
func (o OAuthSupport) AuthStatus(ctx context.Context) ports.AuthStatus {
	return o.Tokens.Status(ctx)
}
