// Package linkedin exposes the LinkedIn member API as fetcher commands
package linkedin

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
	httpinfra "fetcher.dev/cli/internal/infrastructure/http"
	"fetcher.dev/cli/internal/infrastructure/oauth"
	"fetcher.dev/cli/internal/plugins/pluginkit"
)

const (
	Name               = "linkedin"
	TokenPrefix        = "LINKEDIN"
	DefaultBaseURL     = "https://api.linkedin.com/v2"
	DefaultOAuthURL    = "https://www.linkedin.com/oauth/v2"
	DefaultRedirectURL = "http://127.0.0.1:3004/callback"
	restliVersion      = "2.0.0"
)

var scopes = []string{"openid", "profile", "w_member_social", "email"}

// Plugin talks to the LinkedIn v2 API with a member token
type Plugin struct {
	*pluginkit.Base
	pluginkit.OAuthSupport
	client *httpinfra.Client
}

// New is the registry factory for the LinkedIn plugin
func New(deps pluginkit.Deps) (ports.Plugin, error) {
	creds, err := deps.Require(Name, "LINKEDIN_CLIENT_ID", "LINKEDIN_CLIENT_SECRET")
	if err != nil {
		return nil, err
	}
	baseURL, err := deps.BaseURL(Name, "LINKEDIN_API_URL", DefaultBaseURL)
	if err != nil {
		return nil, err
	}
	oauthURL, err := deps.BaseURL(Name, "LINKEDIN_OAUTH_URL", DefaultOAuthURL)
	if err != nil {
		return nil, err
	}
	oauthURL = strings.TrimRight(oauthURL, "/")

	provider := oauth.Provider{
		Name:         Name,
		ClientID:     creds["LINKEDIN_CLIENT_ID"],
		ClientSecret: creds["LINKEDIN_CLIENT_SECRET"],
		AuthURL:      oauthURL + "/authorization",
		TokenURL:     oauthURL + "/accessToken",
		RedirectURL:  deps.LookupOr("LINKEDIN_REDIRECT_URI", DefaultRedirectURL),
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokens := deps.NewTokenCache(TokenPrefix, provider,
		deps.NewClient(Name, oauthURL, nil),
		deps.BearerProbe(Name, baseURL, "me"))

	p := &Plugin{
		OAuthSupport: pluginkit.OAuthSupport{Tokens: tokens},
		client: deps.NewClient(Name, baseURL, httpinfra.BearerAuth{Tokens: tokens},
			httpinfra.WithHeader("X-Restli-Protocol-Version", restliVersion)),
	}

	p.Base, err = pluginkit.NewBase(Name, "LinkedIn profile, posts and connections", p.test,
		domain.Command{
			Name: "me", Description: "Show authenticated user information", Usage: "me",
			Handler: p.me,
		},
		domain.Command{
			Name: "posts", Description: "List your recent posts", Usage: "posts",
			Handler: p.posts,
		},
		domain.Command{
			Name: "share", Description: "Share a new post", Usage: "share [text]", MinArgs: 1,
			Params:  []domain.Param{{Name: "text", Type: domain.ParamString, Required: true, Description: "Post text"}},
			Handler: p.share,
		},
		domain.Command{
			Name: "connections", Description: "List your connections", Usage: "connections",
			Handler: p.connections,
		},
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plugin) test(ctx context.Context, out io.Writer) error {
	fmt.Fprintln(out, "Testing LinkedIn plugin...")
	fmt.Fprintln(out, "\nTesting authentication:")
	if _, err := p.printProfile(ctx, out); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n✅ LinkedIn connection OK")
	return nil
}

func (p *Plugin) me(ctx context.Context, _ []string, out io.Writer) error {
	_, err := p.printProfile(ctx, out)
	return err
}

func (p *Plugin) printProfile(ctx context.Context, out io.Writer) (*profile, error) {
	var u profile
	if err := p.client.Get(ctx, "me", nil, &u); err != nil {
		return nil, err
	}
	fmt.Fprintln(out, "\nUser Information:")
	fmt.Fprintf(out, "  Name: %s\n", strings.TrimSpace(u.FirstName+" "+u.LastName))
	headline := u.Headline
	if headline == "" {
		headline = "N/A"
	}
	fmt.Fprintf(out, "  Headline: %s\n", headline)
	fmt.Fprintf(out, "  ID: %s\n", u.ID)
	return &u, nil
}

func (p *Plugin) posts(ctx context.Context, _ []string, out io.Writer) error {
	var u profile
	if err := p.client.Get(ctx, "me", nil, &u); err != nil {
		return err
	}

	var result struct {
		Elements []ugcPost `json:"elements"`
	}
	query := url.Values{"q": {"authors"}, "authors": {"List(" + personURN(u.ID) + ")"}}
	if err := p.client.Get(ctx, "ugcPosts", query, &result); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nYour Recent Posts:")
	if len(result.Elements) == 0 {
		fmt.Fprintln(out, "No posts found")
	}
	for _, post := range result.Elements {
		fmt.Fprintf(out, "- %s\n", post.text())
	}
	return nil
}

func (p *Plugin) share(ctx context.Context, args []string, out io.Writer) error {
	var u profile
	if err := p.client.Get(ctx, "me", nil, &u); err != nil {
		return err
	}

	if err := p.client.Post(ctx, "ugcPosts", newShare(personURN(u.ID), strings.Join(args, " ")), nil); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nPost shared successfully!")
	return nil
}

func (p *Plugin) connections(ctx context.Context, _ []string, out io.Writer) error {
	var result struct {
		Elements []connection `json:"elements"`
	}
	if err := p.client.Get(ctx, "connections", nil, &result); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nYour Connections:")
	for _, c := range result.Elements {
		fmt.Fprintf(out, "- %s\n", strings.TrimSpace(c.FirstName+" "+c.LastName))
	}
	return nil
}

func personURN(id string) string {
	return "urn:li:person:" + id
}

var _ ports.Authenticatable = (*Plugin)(nil)
