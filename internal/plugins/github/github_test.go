package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
	"fetcher.dev/cli/internal/infrastructure/config"
	"fetcher.dev/cli/internal/plugins/pluginkit"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestPlugin(t *testing.T, mux *http.ServeMux, env config.MapEnv) ports.Plugin {
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	if env == nil {
		env = config.MapEnv{}
	}
	env["GITHUB_API_URL"] = server.URL
	plugin, err := New(pluginkit.Deps{Env: env, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	return plugin
}

// TestPlugin_Repo tests repository details output
func TestPlugin_Repo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octocat/Hello-World", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"full_name":         "octocat/Hello-World",
			"description":       "My first repository on GitHub!",
			"language":          nil,
			"stargazers_count":  2500,
			"forks_count":       2300,
			"watchers_count":    2500,
			"open_issues_count": 1200,
			"html_url":          "https://github.com/octocat/Hello-World",
			"topics":            []string{"demo", "hello"},
			"license":           map[string]string{"name": "MIT License"},
		})
	})
	plugin := newTestPlugin(t, mux, nil)

	var out bytes.Buffer
	require.NoError(t, plugin.Run(context.Background(), "repo", []string{"octocat/Hello-World"}, &out))

	text := out.String()
	assert.Contains(t, text, "Repository: octocat/Hello-World")
	assert.Contains(t, text, "Description: My first repository on GitHub!")
	assert.Contains(t, text, "Stars: 2500")
	assert.Contains(t, text, "Forks: 2300")
	assert.Contains(t, text, "URL: https://github.com/octocat/Hello-World")
	assert.Contains(t, text, "Language: Not specified")
	assert.Contains(t, text, "Topics: demo, hello")
	assert.Contains(t, text, "License: MIT License")
	assert.Contains(t, text, "Private: No")
}

// TestPlugin_Repo_NotFound tests the explanatory 404 message
func TestPlugin_Repo_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octocat/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	})
	plugin := newTestPlugin(t, mux, nil)

	var out bytes.Buffer
	err := plugin.Run(context.Background(), "repo", []string{"octocat/missing"}, &out)
	assert.Equal(t, http.StatusNotFound, domain.StatusCode(err))
	assert.Contains(t, out.String(), "Repository 'octocat/missing' not found or not accessible")
}

// TestPlugin_Issues_SkipsPullRequests tests filtering and the default state
func TestPlugin_Issues_SkipsPullRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/a/b/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"number": 1, "title": "Real bug", "state": "open", "user": map[string]string{"login": "alice"},
				"labels": []map[string]string{{"name": "bug", "color": "red"}}, "body": "It crashes", "html_url": "u1"},
			{"number": 2, "title": "A pull request", "state": "open", "user": map[string]string{"login": "bob"},
				"pull_request": map[string]string{"url": "x"}, "html_url": "u2"},
		})
	})
	plugin := newTestPlugin(t, mux, nil)

	var out bytes.Buffer
	require.NoError(t, plugin.Run(context.Background(), "issues", []string{"a/b"}, &out))
	assert.Contains(t, out.String(), "#1 - Real bug")
	assert.Contains(t, out.String(), "Labels: bug")
	assert.Contains(t, out.String(), "Preview: It crashes")
	assert.NotContains(t, out.String(), "A pull request")
}

// TestPlugin_Issues_DefaultRepository tests GITHUB_REPOSITORY fallback
func TestPlugin_Issues_DefaultRepository(t *testing.T) {
	var hit atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/team/app/issues", func(w http.ResponseWriter, r *http.Request) {
		hit.Store(true)
		assert.Equal(t, "closed", r.URL.Query().Get("state"))
		writeJSON(w, http.StatusOK, []interface{}{})
	})
	plugin := newTestPlugin(t, mux, config.MapEnv{"GITHUB_REPOSITORY": "team/app"})

	var out bytes.Buffer
	require.NoError(t, plugin.Run(context.Background(), "issues", []string{"", "closed"}, &out))
	assert.True(t, hit.Load())
	assert.Contains(t, out.String(), "No issues found")

	noDefault := newTestPlugin(t, http.NewServeMux(), nil)
	err := noDefault.Run(context.Background(), "issues", nil, &out)
	var usage *domain.UsageError
	assert.True(t, errors.As(err, &usage))
}

// TestPlugin_Issue_WithComments tests issue details followed by comments
func TestPlugin_Issue_WithComments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/a/b/issues/5", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"number": 5, "title": "Crash on start", "state": "open", "comments": 1,
			"user": map[string]string{"login": "alice"}, "body": "Steps to reproduce",
			"milestone": map[string]string{"title": "v1.0"},
		})
	})
	mux.HandleFunc("GET /repos/a/b/issues/5/comments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"user": map[string]string{"login": "bob"}, "body": "Confirmed", "created_at": "t1", "updated_at": "t2"},
		})
	})
	plugin := newTestPlugin(t, mux, nil)

	var out bytes.Buffer
	require.NoError(t, plugin.Run(context.Background(), "issue", []string{"a/b", "5"}, &out))
	text := out.String()
	assert.Contains(t, text, "Issue #5: Crash on start")
	assert.Contains(t, text, "Milestone: v1.0")
	assert.Contains(t, text, "Steps to reproduce")
	assert.Contains(t, text, "Comments (1)")
	assert.Contains(t, text, "Author: bob")
	assert.Contains(t, text, "Updated: t2")
}

// TestPlugin_CreateIssue tests token enforcement and the POST payload
func TestPlugin_CreateIssue(t *testing.T) {
	var posted map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/a/b/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		writeJSON(w, http.StatusCreated, map[string]interface{}{"number": 42, "title": posted["title"], "html_url": "https://github.com/a/b/issues/42"})
	})

	anonymous := newTestPlugin(t, mux, nil)
	var out bytes.Buffer
	err := anonymous.Run(context.Background(), "create_issue", []string{"a/b", "Title"}, &out)
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
	assert.Contains(t, out.String(), "Authentication required")
	assert.Nil(t, posted)

	authed := newTestPlugin(t, mux, config.MapEnv{"GITHUB_TOKEN": "secret"})
	out.Reset()
	require.NoError(t, authed.Run(context.Background(), "create_issue", []string{"a/b", "Title", "Body text"}, &out))
	assert.Equal(t, map[string]string{"title": "Title", "body": "Body text"}, posted)
	assert.Contains(t, out.String(), "Number: #42")
}

// TestPlugin_UpdateProfile tests field validation and the PATCH request
func TestPlugin_UpdateProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"login": "me", "bio": nil})
	})
	mux.HandleFunc("PATCH /user", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]interface{}{"login": "me", "bio": body["bio"]})
	})
	plugin := newTestPlugin(t, mux, config.MapEnv{"GITHUB_TOKEN": "secret"})

	var out bytes.Buffer
	err := plugin.Run(context.Background(), "update_profile", []string{"twitter", "x"}, &out)
	var usage *domain.UsageError
	require.True(t, errors.As(err, &usage))
	assert.Contains(t, out.String(), "Invalid field: twitter")

	out.Reset()
	require.NoError(t, plugin.Run(context.Background(), "update_profile", []string{"bio", "Go", "developer"}, &out))
	assert.Contains(t, out.String(), "Old bio: Not set")
	assert.Contains(t, out.String(), "New bio: Go developer")
}

// TestPlugin_TestAnonymous tests the connectivity check without a token
func TestPlugin_TestAnonymous(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []map[string]string{{"name": "Hello-World", "description": "demo"}})
	})
	plugin := newTestPlugin(t, mux, nil)

	var out bytes.Buffer
	require.NoError(t, plugin.Test(context.Background(), &out))
	assert.Contains(t, out.String(), "anonymous access")
	assert.Contains(t, out.String(), "- Hello-World: demo")
}

// TestPlugin_Fetch tests raw endpoint passthrough
func TestPlugin_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rate_limit", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"rate": map[string]int{"remaining": 59}})
	})
	plugin := newTestPlugin(t, mux, nil)

	var out bytes.Buffer
	require.NoError(t, plugin.Run(context.Background(), "fetch", []string{"/rate_limit"}, &out))
	assert.Contains(t, out.String(), `"remaining": 59`)
}

// TestNew_InvalidBaseURL tests factory validation
func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(pluginkit.Deps{Env: config.MapEnv{"GITHUB_API_URL": "ftp://example.com"}})
	assert.Error(t, err)
}

// TestNew_CommandTable tests the exposed commands and declared parameters
func TestNew_CommandTable(t *testing.T) {
	plugin, err := New(pluginkit.Deps{Env: config.MapEnv{}})
	require.NoError(t, err)

	assert.Equal(t, []string{"test", "list", "search", "fetch", "me", "repo", "issues", "issue", "create_issue", "update_repo", "update_profile"},
		plugin.Commands().Names())

	cmd, ok := plugin.Commands().Lookup("issue")
	require.True(t, ok)
	require.Len(t, cmd.Params, 2)
	assert.Equal(t, "owner_repo", cmd.Params[0].Name)
	assert.Equal(t, domain.ParamStringOrNumber, cmd.Params[1].Type)
}
