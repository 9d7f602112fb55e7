package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
)

// EnvFileStore persists tokens as KEY=value lines in a dotenv file.
// Writes swap in a new file through a rename; only the token lines change.
type EnvFileStore struct {
	path     string
	fallback ports.Environment
	mu       sync.Mutex
}

// NewEnvFileStore creates a store backed by path. Keys absent from the file are
// looked up in fallback when it is non-nil; a key present in the file, even empty, wins.
func NewEnvFileStore(path string, fallback ports.Environment) *EnvFileStore {
	return &EnvFileStore{path: path, fallback: fallback}
}

// Load returns the stored token or nil when no access token is stored
func (s *EnvFileStore) Load(ctx context.Context, prefix string) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return nil, err
	}

	accessKey, expiryKey, refreshKey := Keys(prefix)
	lookup := func(key string) string {
		if v, ok := values[key]; ok {
			return v
		}
		if s.fallback != nil {
			v, _ := s.fallback.Lookup(key)
			return v
		}
		return ""
	}

	access := lookup(accessKey)
	if access == "" {
		return nil, nil
	}

	// An unreadable expiry parses to zero and is treated as expired
	expiry, _ := ParseExpiry(lookup(expiryKey))

	return &domain.Token{
		AccessToken:  access,
		RefreshToken: lookup(refreshKey),
		Expiry:       expiry,
	}, nil
}

// Save replaces the token lines, leaving every other line byte-for-byte as it was.
// A missing refresh token is written as an empty value so a stale one in the
// process environment is not picked up again.
func (s *EnvFileStore) Save(ctx context.Context, prefix string, token *domain.Token) error {
	if token == nil {
		return fmt.Errorf("cannot save nil token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accessKey, expiryKey, refreshKey := Keys(prefix)
	return s.replace(map[string]string{
		accessKey:  token.AccessToken,
		expiryKey:  FormatExpiry(token.Expiry),
		refreshKey: token.RefreshToken,
	})
}

// Clear blanks the token keys. Empty entries shadow values exported in the environment.
func (s *EnvFileStore) Clear(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accessKey, expiryKey, refreshKey := Keys(prefix)
	return s.replace(map[string]string{
		accessKey:  "",
		expiryKey:  "",
		refreshKey: "",
	})
}

func (s *EnvFileStore) read() (map[string]string, error) {
	values, err := godotenv.Read(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return values, nil
}

// replace drops the lines assigning any key in entries and appends fresh ones
func (s *EnvFileStore) replace(entries map[string]string) error {
	raw, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read env file: %w", err)
	}

	var kept strings.Builder
	if len(raw) > 0 {
		for _, line := range strings.SplitAfter(string(raw), "\n") {
			if key, ok := lineKey(line); ok {
				if _, owned := entries[key]; owned {
					continue
				}
			}
			kept.WriteString(line)
		}
	}
	content := kept.String()
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	lines, err := godotenv.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode token entries: %w", err)
	}
	return s.write(content + lines + "\n")
}

// lineKey returns the variable a dotenv line assigns, if any
func lineKey(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", false
	}
	line = strings.TrimPrefix(line, "export ")
	key, _, ok := strings.Cut(line, "=")
	if !ok {
		return "", false
	}
	key = strings.TrimSpace(key)
	return key, key != ""
}

func (s *EnvFileStore) write(content string) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".env.tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write env file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set env file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close env file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace env file: %w", err)
	}
	return nil
}

var _ ports.TokenStore = (*EnvFileStore)(nil)
