package di

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"fetcher.dev/cli/internal/infrastructure/config"
	"fetcher.dev/cli/internal/infrastructure/tokenstore"
)

func noEnv(string) string { return "" }

func testOptions(t *testing.T, env config.MapEnv) Options {
	t.Helper()
	return Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"),
		EnvFile:    filepath.Join(t.TempDir(), ".env"),
		Env:        env,
		LogOutput:  &bytes.Buffer{},
		PromptOut:  &bytes.Buffer{},
		Getenv:     noEnv,
	}
}

func TestNewContainer_LoadsPluginsWithCredentials(t *testing.T) {
	c, err := NewContainer(testOptions(t, config.MapEnv{
		"TRELLO_API_KEY": "k",
		"TRELLO_TOKEN":   "t",
	}))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{"github", "trello"}, c.Registry.Names())
	assert.Contains(t, c.Registry.Skipped(), "spotify")
	assert.Contains(t, c.Registry.Skipped(), "linkedin")
	assert.Same(t, c.Registry, c.Dispatcher.Registry())
	assert.IsType(t, &tokenstore.EnvFileStore{}, c.Tokens)
}

func TestNewContainer_ConfigFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"disabled_plugins: [github]\nhttp_timeout: 5s\nhttp_retries: 4\nlog_level: error\n"), 0o600))

	opts := testOptions(t, config.MapEnv{})
	opts.ConfigPath = path
	opts.LogLevel = "debug"

	c, err := NewContainer(opts)
	require.NoError(t, err)

	assert.Empty(t, c.Registry.Names())
	assert.Equal(t, 5*time.Second, c.Config.HTTPTimeout)
	assert.Equal(t, 4, c.Config.HTTPRetries)
	assert.Equal(t, "debug", c.Config.LogLevel)
	assert.Equal(t, opts.EnvFile, c.Config.EnvFile)
}

func TestNewContainer_InvalidOverrides(t *testing.T) {
	opts := testOptions(t, config.MapEnv{})
	opts.TokenStore = "vault"
	_, err := NewContainer(opts)
	assert.ErrorContains(t, err, "unsupported token store")

	opts = testOptions(t, config.MapEnv{})
	opts.LogLevel = "loud"
	_, err = NewContainer(opts)
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNewContainer_KeyringStore(t *testing.T) {
	keyring.MockInit()

	opts := testOptions(t, config.MapEnv{})
	opts.TokenStore = config.TokenStoreKeyring

	c, err := NewContainer(opts)
	require.NoError(t, err)
	assert.IsType(t, &tokenstore.KeyringStore{}, c.Tokens)
}
