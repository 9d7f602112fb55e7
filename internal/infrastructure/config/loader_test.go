package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFunc(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

// TestLoader_DefaultsWhenFileMissing tests that an absent file yields defaults
func TestLoader_DefaultsWhenFileMissing(t *testing.T) {
	loader := &Loader{Path: filepath.Join(t.TempDir(), "missing.yaml"), Getenv: envFunc(nil)}

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// TestLoader_FileThenEnvPrecedence tests layering of file and environment values
func TestLoader_FileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env_file: creds.env
log_level: info
token_store: keyring
oauth_timeout: 2m
http_retries: 5
disabled_plugins: [linkedin]
`), 0600))

	loader := &Loader{Path: path, Getenv: envFunc(map[string]string{
		"FETCHER_LOG_LEVEL":        "debug",
		"FETCHER_HTTP_TIMEOUT":     "10",
		"FETCHER_DISABLED_PLUGINS": "trello, spotify",
	})}

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "creds.env", cfg.EnvFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, TokenStoreKeyring, cfg.TokenStore)
	assert.Equal(t, 2*time.Minute, cfg.OAuthTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 5, cfg.HTTPRetries)
	assert.Equal(t, []string{"trello", "spotify"}, cfg.DisabledPlugins)
	assert.True(t, cfg.IsDisabled("spotify"))
	assert.False(t, cfg.IsDisabled("linkedin"))
}

// TestLoader_ConfigPathFromEnvironment tests FETCHER_CONFIG lookup
func TestLoader_ConfigPathFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serve_log_level: error\n"), 0600))

	loader := &Loader{Getenv: envFunc(map[string]string{"FETCHER_CONFIG": path})}
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.ServeLogLevel)
}

// TestLoader_InvalidValues tests rejection of malformed overrides
func TestLoader_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "BadRetries", env: map[string]string{"FETCHER_HTTP_RETRIES": "many"}},
		{name: "BadTimeout", env: map[string]string{"FETCHER_OAUTH_TIMEOUT": "soon"}},
		{name: "UnknownStore", env: map[string]string{"FETCHER_TOKEN_STORE": "vault"}},
		{name: "NegativeRetries", env: map[string]string{"FETCHER_HTTP_RETRIES": "-1"}},
		{name: "MalformedYAML", file: "log_level: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if tt.file != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0600))
			}
			_, err := (&Loader{Path: path, Getenv: envFunc(tt.env)}).Load()
			assert.Error(t, err)
		})
	}
}

// TestValidateBaseURL tests base URL overrides
func TestValidateBaseURL(t *testing.T) {
	assert.NoError(t, ValidateBaseURL("https://api.github.com"))
	assert.NoError(t, ValidateBaseURL("http://127.0.0.1:8080/v1"))
	assert.Error(t, ValidateBaseURL(""))
	assert.Error(t, ValidateBaseURL("ftp://example.com"))
	assert.Error(t, ValidateBaseURL("https://"))
}

// TestLoadDotEnv tests env file merging without overriding existing variables
func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FETCHER_TEST_NEW=fromfile\nFETCHER_TEST_SET=fromfile\n"), 0600))

	t.Setenv("FETCHER_TEST_SET", "fromenv")
	t.Setenv("FETCHER_TEST_NEW", "")
	require.NoError(t, os.Unsetenv("FETCHER_TEST_NEW"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "fromfile", os.Getenv("FETCHER_TEST_NEW"))
	assert.Equal(t, "fromenv", os.Getenv("FETCHER_TEST_SET"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

// TestMapEnv tests the map-backed environment
func TestMapEnv(t *testing.T) {
	env := MapEnv{"A": "1"}
	v, ok := env.Lookup("A")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	_, ok = env.Lookup("B")
	assert.False(t, ok)
}
