package trello

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
	"fetcher.dev/cli/internal/infrastructure/config"
	"fetcher.dev/cli/internal/plugins/pluginkit"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTestPlugin(t *testing.T, mux *http.ServeMux) ports.Plugin {
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	plugin, err := New(pluginkit.Deps{Env: config.MapEnv{
		"TRELLO_API_KEY":  "k",
		"TRELLO_TOKEN":    "tok",
		"TRELLO_BASE_URL": server.URL,
	}})
	require.NoError(t, err)
	return plugin
}

func assertCredentials(t *testing.T, r *http.Request) {
	assert.Equal(t, "k", r.URL.Query().Get("key"))
	assert.Equal(t, "tok", r.URL.Query().Get("token"))
}

// TestNew_MissingCredentials tests that both variables are reported
func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(pluginkit.Deps{Env: config.MapEnv{}})
	require.ErrorIs(t, err, domain.ErrMissingCredentials)

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"TRELLO_API_KEY", "TRELLO_TOKEN"}, cfgErr.Missing)
}

// TestPlugin_Board tests the expansion parameters and the listing
func TestPlugin_Board(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /boards/b1", func(w http.ResponseWriter, r *http.Request) {
		assertCredentials(t, r)
		assert.Equal(t, "open", r.URL.Query().Get("lists"))
		assert.Equal(t, "open", r.URL.Query().Get("cards"))
		writeJSON(w, map[string]interface{}{
			"name":  "Roadmap",
			"url":   "https://trello.com/b/b1",
			"lists": []map[string]string{{"id": "l1", "name": "Todo"}},
			"cards": []map[string]string{{"id": "c1", "name": "Ship it"}},
		})
	})
	plugin := newTestPlugin(t, mux)

	var out bytes.Buffer
	require.NoError(t, plugin.Run(context.Background(), "board", []string{"b1"}, &out))
	text := out.String()
	assert.Contains(t, text, "Board: Roadmap")
	assert.Contains(t, text, "Description: No description")
	assert.Contains(t, text, "- Todo (ID: l1)")
	assert.Contains(t, text, "- Ship it (ID: c1)")
}

// TestPlugin_List tests list details with open cards
func TestPlugin_List(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /lists/l1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("cards"))
		writeJSON(w, map[string]interface{}{
			"name": "Todo", "closed": true,
			"cards": []map[string]string{{"id": "c1", "name": "Ship it"}},
		})
	})
	plugin := newTestPlugin(t, mux)

	var out bytes.Buffer
	require.NoError(t, plugin.Run(context.Background(), "list", []string{"l1"}, &out))
	assert.Contains(t, out.String(), "List: Todo")
	assert.Contains(t, out.String(), "Closed: Yes")
	assert.Contains(t, out.String(), "Cards in this list:")
}

// TestPlugin_Writes tests comment and move requests
func TestPlugin_Writes(t *testing.T) {
	var comment, move map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /cards/c1/actions/comments", func(w http.ResponseWriter, r *http.Request) {
		assertCredentials(t, r)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&comment))
		writeJSON(w, map[string]string{"id": "a1"})
	})
	mux.HandleFunc("PUT /cards/c1", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&move))
		writeJSON(w, map[string]string{"id": "c1"})
	})
	plugin := newTestPlugin(t, mux)

	var out bytes.Buffer
	require.NoError(t, plugin.Run(context.Background(), "add_comment", []string{"c1", "Looks good"}, &out))
	assert.Equal(t, map[string]string{"text": "Looks good"}, comment)
	assert.Contains(t, out.String(), "Comment added successfully to card c1")

	require.NoError(t, plugin.Run(context.Background(), "move_card", []string{"c1", "l2"}, &out))
	assert.Equal(t, map[string]string{"idList": "l2"}, move)
	assert.Contains(t, out.String(), "Card moved successfully to list l2")
}

// TestPlugin_Unauthorized tests that a rejected token is reported once
func TestPlugin_Unauthorized(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /members/me", func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "invalid token", http.StatusUnauthorized)
	})
	plugin := newTestPlugin(t, mux)

	err := plugin.Test(context.Background(), &bytes.Buffer{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, 1, calls)
}

// TestPlugin_Test tests user information followed by the board listing
func TestPlugin_Test(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /members/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"fullName": "Ada Lovelace", "username": "ada"})
	})
	mux.HandleFunc("GET /members/me/boards", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]string{{"id": "b1", "name": "Roadmap"}})
	})
	plugin := newTestPlugin(t, mux)

	var out bytes.Buffer
	require.NoError(t, plugin.Test(context.Background(), &out))
	assert.Contains(t, out.String(), "Name: Ada Lovelace")
	assert.Contains(t, out.String(), "Email: N/A")
	assert.Contains(t, out.String(), "- Roadmap (ID: b1)")
}
