package oauth

import (
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
)

// Provider describes an OAuth 2.0 authorization-code client registration
type Provider struct {
	Name         string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	// RedirectURL must point at the loopback address registered with the provider
	RedirectURL string
	Scopes      []string
	// AuthStyle selects how client credentials reach the token endpoint
	AuthStyle oauth2.AuthStyle
	// AuthParams are extra query parameters for the authorization URL
	AuthParams map[string]string
}

// Config returns the oauth2 configuration for the provider
func (p Provider) Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.TokenURL,
			AuthStyle: p.AuthStyle,
		},
		RedirectURL: p.RedirectURL,
		Scopes:      p.Scopes,
	}
}

// AuthCodeURL builds the authorization URL carrying state and the provider's extra parameters
func (p Provider) AuthCodeURL(state string) string {
	opts := make([]oauth2.AuthCodeOption, 0, len(p.AuthParams))
	for k, v := range p.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return p.Config().AuthCodeURL(state, opts...)
}

// redirectTarget returns the listen address and callback path of the redirect URL
func (p Provider) redirectTarget() (addr, path string, err error) {
	u, err := url.Parse(p.RedirectURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	if u.Host == "" || u.Port() == "" {
		return "", "", fmt.Errorf("redirect URL %q must include host and port", p.RedirectURL)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Host, path, nil
}
