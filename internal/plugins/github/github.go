// Package github exposes the GitHub REST API as fetcher commands.
package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
	httpinfra "fetcher.dev/cli/internal/infrastructure/http"
	"fetcher.dev/cli/internal/plugins/pluginkit"
)

const (
	Name           = "github"
	DefaultBaseURL = "https://api.github.com"
	// anonymousUser is listed by the connectivity check when no token is configured
	anonymousUser = "octocat"
)

var profileFields = []string{"name", "bio", "location", "company", "blog"}

// Plugin talks to the GitHub REST API. GITHUB_TOKEN is optional; without it only
// public, read-only commands succeed.
type Plugin struct {
	*pluginkit.Base
	client      *httpinfra.Client
	hasToken    bool
	defaultRepo string
}

// New is the registry factory for the GitHub plugin
func New(deps pluginkit.Deps) (ports.Plugin, error) {
	baseURL, err := deps.BaseURL(Name, "GITHUB_API_URL", DefaultBaseURL)
	if err != nil {
		return nil, err
	}

	token := deps.Lookup("GITHUB_TOKEN")
	authn := httpinfra.HeaderAuth{Name: "Authorization"}
	if token != "" {
		authn.Value = "token " + token
	}

	p := &Plugin{
		client: deps.NewClient(Name, baseURL, authn,
			httpinfra.WithHeader("Accept", "application/vnd.github.v3+json")),
		hasToken:    token != "",
		defaultRepo: deps.Lookup("GITHUB_REPOSITORY"),
	}

	ownerRepo := domain.Param{Name: "owner_repo", Type: domain.ParamString, Required: true,
		Description: "Repository in format owner/repo (e.g., microsoft/vscode)"}

	p.Base, err = pluginkit.NewBase(Name, "GitHub repositories, issues and profiles", p.test,
		domain.Command{
			Name: "list", Description: "List repositories for a user", Usage: "list [username]", MinArgs: 1,
			Params:  []domain.Param{{Name: "username", Type: domain.ParamString, Required: true, Description: "GitHub username to list repositories for"}},
			Handler: p.listRepos,
		},
		domain.Command{
			Name: "search", Description: "Search repositories", Usage: "search [query]", MinArgs: 1,
			Params:  []domain.Param{{Name: "query", Type: domain.ParamString, Required: true, Description: "Search query for repositories"}},
			Handler: p.searchRepos,
		},
		domain.Command{
			Name: "fetch", Description: "Fetch raw JSON from an API endpoint", Usage: "fetch [endpoint]", MinArgs: 1,
			Params:  []domain.Param{{Name: "endpoint", Type: domain.ParamString, Required: true, Description: "API path such as users/octocat"}},
			Handler: p.fetchRaw,
		},
		domain.Command{
			Name: "me", Description: "Show authenticated user information", Usage: "me",
			Handler: p.me,
		},
		domain.Command{
			Name: "repo", Description: "Get repository information", Usage: "repo [owner/repo]", MinArgs: 1,
			Params:  []domain.Param{ownerRepo},
			Handler: p.repo,
		},
		domain.Command{
			Name: "issues", Description: "List repository issues", Usage: "issues [owner/repo] [state]",
			Params: []domain.Param{
				ownerRepo,
				{Name: "state", Type: domain.ParamString, Default: "open", Description: "Issue state: open, closed, or all"},
			},
			Handler: p.issues,
		},
		domain.Command{
			Name: "issue", Description: "Get specific issue details", Usage: "issue [owner/repo] [issue_number]", MinArgs: 2,
			Params: []domain.Param{
				ownerRepo,
				{Name: "issue_number", Type: domain.ParamStringOrNumber, Required: true, Description: "Issue number to retrieve"},
			},
			Handler: p.issue,
		},
		domain.Command{
			Name: "create_issue", Description: "Create new issue", Usage: "create_issue [owner/repo] [title] [body]", MinArgs: 2,
			Params: []domain.Param{
				ownerRepo,
				{Name: "title", Type: domain.ParamString, Required: true, Description: "Issue title"},
				{Name: "body", Type: domain.ParamString, Default: "", Description: "Issue body/description"},
			},
			Handler: p.createIssue,
		},
		domain.Command{
			Name: "update_repo", Description: "Update a repository description", Usage: "update_repo [owner/repo] [description]", MinArgs: 2,
			Params: []domain.Param{
				ownerRepo,
				{Name: "description", Type: domain.ParamString, Required: true, Description: "New repository description"},
			},
			Handler: p.updateRepo,
		},
		domain.Command{
			Name: "update_profile", Description: "Update a profile field (" + strings.Join(profileFields, ", ") + ")",
			Usage: "update_profile [field] [value]", MinArgs: 2,
			Params: []domain.Param{
				{Name: "field", Type: domain.ParamString, Required: true, Description: "One of " + strings.Join(profileFields, ", ")},
				{Name: "value", Type: domain.ParamString, Required: true, Description: "New value"},
			},
			Handler: p.updateProfile,
		},
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plugin) requireToken(out io.Writer, action string) error {
	if p.hasToken {
		return nil
	}
	fmt.Fprintf(out, "❌ Authentication required to %s. Please set GITHUB_TOKEN.\n", action)
	return fmt.Errorf("%w: GITHUB_TOKEN", domain.ErrMissingCredentials)
}

func (p *Plugin) test(ctx context.Context, out io.Writer) error {
	fmt.Fprintln(out, "Testing GitHub plugin...")

	login := anonymousUser
	if p.hasToken {
		fmt.Fprintln(out, "\nTesting authentication:")
		u, err := p.printUser(ctx, out)
		if err != nil {
			return err
		}
		login = u.Login
	} else {
		fmt.Fprintln(out, "\nNo GITHUB_TOKEN set, using anonymous access")
	}

	fmt.Fprintf(out, "\nListing repositories for '%s':\n", login)
	if err := p.listRepos(ctx, []string{login}, out); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n✅ GitHub connection OK")
	return nil
}

func (p *Plugin) me(ctx context.Context, _ []string, out io.Writer) error {
	_, err := p.printUser(ctx, out)
	return err
}

func (p *Plugin) printUser(ctx context.Context, out io.Writer) (*user, error) {
	var u user
	if err := p.client.Get(ctx, "user", nil, &u); err != nil {
		return nil, err
	}
	fmt.Fprintln(out, "\nUser Information:")
	fmt.Fprintf(out, "  Name: %s\n", orNA(u.Name))
	fmt.Fprintf(out, "  Login: %s\n", u.Login)
	fmt.Fprintf(out, "  Bio: %s\n", orNA(u.Bio))
	fmt.Fprintf(out, "  Email: %s\n", orNA(u.Email))
	fmt.Fprintf(out, "  Location: %s\n", orNA(u.Location))
	fmt.Fprintf(out, "  Public repositories: %d\n", u.PublicRepos)
	fmt.Fprintf(out, "  Followers: %d\n", u.Followers)
	fmt.Fprintf(out, "  Following: %d\n", u.Following)
	return &u, nil
}

func (p *Plugin) listRepos(ctx context.Context, args []string, out io.Writer) error {
	var repos []repository
	endpoint := "users/" + url.PathEscape(args[0]) + "/repos"
	if err := p.client.Get(ctx, endpoint, url.Values{"sort": {"updated"}}, &repos); err != nil {
		return err
	}
	if len(repos) == 0 {
		fmt.Fprintf(out, "No public repositories for %s\n", args[0])
		return nil
	}
	for _, r := range repos {
		fmt.Fprintf(out, "- %s: %s\n", r.Name, orDefault(r.Description, "No description"))
	}
	return nil
}

func (p *Plugin) searchRepos(ctx context.Context, args []string, out io.Writer) error {
	var result struct {
		TotalCount int          `json:"total_count"`
		Items      []repository `json:"items"`
	}
	query := strings.Join(args, " ")
	if err := p.client.Get(ctx, "search/repositories", url.Values{"q": {query}}, &result); err != nil {
		return err
	}
	fmt.Fprintf(out, "Found %d repositories for '%s'\n", result.TotalCount, query)
	for _, r := range result.Items {
		fmt.Fprintf(out, "- %s: %s\n", r.FullName, orDefault(r.Description, "No description"))
	}
	return nil
}

func (p *Plugin) fetchRaw(ctx context.Context, args []string, out io.Writer) error {
	var payload interface{}
	if err := p.client.Get(ctx, strings.TrimPrefix(args[0], "/"), nil, &payload); err != nil {
		return err
	}
	return pluginkit.PrettyJSON(out, payload)
}

func (p *Plugin) repo(ctx context.Context, args []string, out io.Writer) error {
	fullName := args[0]
	var r repository
	if err := p.client.Get(ctx, "repos/"+fullName, nil, &r); err != nil {
		if domain.StatusCode(err) == http.StatusNotFound {
			fmt.Fprintf(out, "❌ Repository '%s' not found or not accessible\n", fullName)
		}
		return err
	}

	fmt.Fprintf(out, "\n📁 Repository: %s\n", r.FullName)
	fmt.Fprintf(out, "📝 Description: %s\n", orDefault(r.Description, "No description"))
	fmt.Fprintf(out, "🌐 Language: %s\n", orDefault(r.Language, "Not specified"))
	fmt.Fprintf(out, "⭐ Stars: %d\n", r.Stars)
	fmt.Fprintf(out, "🍴 Forks: %d\n", r.Forks)
	fmt.Fprintf(out, "👁️ Watchers: %d\n", r.Watchers)
	fmt.Fprintf(out, "🐛 Open Issues: %d\n", r.OpenIssues)
	fmt.Fprintf(out, "📅 Created: %s\n", r.CreatedAt)
	fmt.Fprintf(out, "🔄 Updated: %s\n", r.UpdatedAt)
	fmt.Fprintf(out, "🌍 URL: %s\n", r.HTMLURL)
	if len(r.Topics) > 0 {
		fmt.Fprintf(out, "🏷️ Topics: %s\n", strings.Join(r.Topics, ", "))
	}
	fmt.Fprintf(out, "🔓 Private: %s\n", yesNo(r.Private))
	license := "No license"
	if r.License != nil && r.License.Name != "" {
		license = r.License.Name
	}
	fmt.Fprintf(out, "📜 License: %s\n", license)
	return nil
}

func (p *Plugin) issues(ctx context.Context, args []string, out io.Writer) error {
	fullName := domain.Arg(args, 0, p.defaultRepo)
	if fullName == "" {
		fmt.Fprintf(out, "Usage: fetcher %s issues [owner/repo] [state]\n", Name)
		return &domain.UsageError{Command: "issues", Usage: "issues [owner/repo] [state]"}
	}
	state := domain.Arg(args, 1, "open")

	var list []issue
	if err := p.client.Get(ctx, "repos/"+fullName+"/issues", url.Values{"state": {state}}, &list); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n🐛 Issues for %s (State: %s):\n", fullName, state)
	fmt.Fprintln(out, strings.Repeat("=", 60))
	shown := 0
	for _, is := range list {
		if is.isPullRequest() {
			continue
		}
		shown++
		fmt.Fprintf(out, "\n#%d - %s\n", is.Number, is.Title)
		fmt.Fprintf(out, "👤 Author: %s\n", is.User.Login)
		fmt.Fprintf(out, "📅 Created: %s\n", is.CreatedAt)
		fmt.Fprintf(out, "🏷️ State: %s\n", is.State)
		if len(is.Labels) > 0 {
			fmt.Fprintf(out, "🔖 Labels: %s\n", strings.Join(is.labelNames(false), ", "))
		}
		if is.Assignee != nil {
			fmt.Fprintf(out, "👥 Assignee: %s\n", is.Assignee.Login)
		}
		if is.Body != "" {
			fmt.Fprintf(out, "📝 Preview: %s\n", pluginkit.Truncate(is.Body, 100))
		}
		fmt.Fprintf(out, "🔗 URL: %s\n", is.HTMLURL)
	}
	if shown == 0 {
		fmt.Fprintln(out, "No issues found")
	}
	return nil
}

func (p *Plugin) issue(ctx context.Context, args []string, out io.Writer) error {
	fullName, number := args[0], strings.TrimPrefix(args[1], "#")

	var is issue
	if err := p.client.Get(ctx, "repos/"+fullName+"/issues/"+number, nil, &is); err != nil {
		if domain.StatusCode(err) == http.StatusNotFound {
			fmt.Fprintf(out, "❌ Issue #%s not found in %s\n", number, fullName)
		}
		return err
	}

	fmt.Fprintf(out, "\n🐛 Issue #%d: %s\n", is.Number, is.Title)
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintf(out, "📝 Repository: %s\n", fullName)
	fmt.Fprintf(out, "👤 Author: %s\n", is.User.Login)
	fmt.Fprintf(out, "📅 Created: %s\n", is.CreatedAt)
	fmt.Fprintf(out, "🔄 Updated: %s\n", is.UpdatedAt)
	fmt.Fprintf(out, "🏷️ State: %s\n", is.State)
	if len(is.Labels) > 0 {
		fmt.Fprintf(out, "🔖 Labels: %s\n", strings.Join(is.labelNames(true), ", "))
	}
	if is.Milestone != nil {
		fmt.Fprintf(out, "🎯 Milestone: %s\n", is.Milestone.Title)
	}
	if is.Assignee != nil {
		fmt.Fprintf(out, "👥 Assignee: %s\n", is.Assignee.Login)
	}
	if len(is.Assignees) > 1 {
		names := make([]string, 0, len(is.Assignees))
		for _, a := range is.Assignees {
			names = append(names, a.Login)
		}
		fmt.Fprintf(out, "👥 Assignees: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(out, "💬 Comments: %d\n", is.Comments)
	fmt.Fprintf(out, "🔗 URL: %s\n", is.HTMLURL)

	if is.Body != "" {
		fmt.Fprintln(out, "\n📄 Description:")
		fmt.Fprintln(out, strings.Repeat("-", 40))
		fmt.Fprintln(out, is.Body)
		fmt.Fprintln(out, strings.Repeat("-", 40))
	}

	if is.Comments > 0 {
		return p.comments(ctx, fullName, number, out)
	}
	return nil
}

func (p *Plugin) comments(ctx context.Context, fullName, number string, out io.Writer) error {
	var list []comment
	if err := p.client.Get(ctx, "repos/"+fullName+"/issues/"+number+"/comments", nil, &list); err != nil {
		return fmt.Errorf("failed to fetch comments: %w", err)
	}

	fmt.Fprintf(out, "\n💬 Comments (%d):\n", len(list))
	fmt.Fprintln(out, strings.Repeat("=", 50))
	for i, c := range list {
		fmt.Fprintf(out, "\nComment #%d\n", i+1)
		fmt.Fprintf(out, "👤 Author: %s\n", c.User.Login)
		fmt.Fprintf(out, "📅 Posted: %s\n", c.CreatedAt)
		if c.UpdatedAt != "" && c.UpdatedAt != c.CreatedAt {
			fmt.Fprintf(out, "🔄 Updated: %s\n", c.UpdatedAt)
		}
		fmt.Fprintln(out, "💬 Content:")
		fmt.Fprintln(out, strings.Repeat("-", 30))
		fmt.Fprintln(out, c.Body)
		fmt.Fprintln(out, strings.Repeat("-", 30))
	}
	return nil
}

func (p *Plugin) createIssue(ctx context.Context, args []string, out io.Writer) error {
	if err := p.requireToken(out, "create issues"); err != nil {
		return err
	}

	req := map[string]string{"title": args[1], "body": domain.Arg(args, 2, "")}
	var created issue
	if err := p.client.Post(ctx, "repos/"+args[0]+"/issues", req, &created); err != nil {
		return err
	}

	fmt.Fprintln(out, "✅ Issue created successfully!")
	fmt.Fprintf(out, "📝 Title: %s\n", created.Title)
	fmt.Fprintf(out, "🔢 Number: #%d\n", created.Number)
	fmt.Fprintf(out, "🔗 URL: %s\n", created.HTMLURL)
	return nil
}

func (p *Plugin) updateRepo(ctx context.Context, args []string, out io.Writer) error {
	if err := p.requireToken(out, "update repositories"); err != nil {
		return err
	}

	var updated repository
	if err := p.client.Patch(ctx, "repos/"+args[0], map[string]string{"description": args[1]}, &updated); err != nil {
		return err
	}
	fmt.Fprintln(out, "✅ Successfully updated repository description!")
	fmt.Fprintf(out, "New description: %s\n", orDefault(updated.Description, "No description"))
	return nil
}

func (p *Plugin) updateProfile(ctx context.Context, args []string, out io.Writer) error {
	field, value := args[0], strings.Join(args[1:], " ")
	if !isProfileField(field) {
		fmt.Fprintf(out, "Invalid field: %s. Supported fields are: %s\n", field, strings.Join(profileFields, ", "))
		return &domain.UsageError{Command: "update_profile", Usage: "update_profile [" + strings.Join(profileFields, "|") + "] [value]"}
	}
	if err := p.requireToken(out, "update your profile"); err != nil {
		return err
	}

	var current map[string]interface{}
	if err := p.client.Get(ctx, "user", nil, &current); err != nil {
		return fmt.Errorf("failed to get current profile: %w", err)
	}

	var updated map[string]interface{}
	if err := p.client.Patch(ctx, "user", map[string]string{field: value}, &updated); err != nil {
		return err
	}

	fmt.Fprintf(out, "✅ Successfully updated %s!\n", field)
	fmt.Fprintf(out, "Old %s: %s\n", field, profileValue(current[field]))
	fmt.Fprintf(out, "New %s: %s\n", field, profileValue(updated[field]))
	return nil
}

func isProfileField(field string) bool {
	for _, f := range profileFields {
		if f == field {
			return true
		}
	}
	return false
}

func profileValue(v interface{}) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return "Not set"
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
