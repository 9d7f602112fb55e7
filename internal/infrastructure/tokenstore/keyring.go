package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
)

// DefaultKeyringService is the keyring service name tokens are stored under
const DefaultKeyringService = "fetcher"

type keyringRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Expiry       string `json:"expiry"`
}

// KeyringStore persists tokens in the OS keychain, one entry per prefix
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring store for the given service name
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

// Available probes whether the OS keyring can be used
func (s *KeyringStore) Available() bool {
	_, err := keyring.Get(s.service, "__probe__")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// Load returns the stored token or nil when none exists
func (s *KeyringStore) Load(ctx context.Context, prefix string) (*domain.Token, error) {
	raw, err := keyring.Get(s.service, strings.ToLower(prefix))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var rec keyringRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode keyring entry: %w", err)
	}
	if rec.AccessToken == "" {
		return nil, nil
	}

	expiry, _ := ParseExpiry(rec.Expiry)
	return &domain.Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		Expiry:       expiry,
	}, nil
}

// Save replaces the keyring entry for prefix
func (s *KeyringStore) Save(ctx context.Context, prefix string, token *domain.Token) error {
	if token == nil {
		return fmt.Errorf("cannot save nil token")
	}
	data, err := json.Marshal(keyringRecord{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       FormatExpiry(token.Expiry),
	})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := keyring.Set(s.service, strings.ToLower(prefix), string(data)); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

// Clear deletes the keyring entry for prefix
func (s *KeyringStore) Clear(ctx context.Context, prefix string) error {
	err := keyring.Delete(s.service, strings.ToLower(prefix))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keyring entry: %w", err)
	}
	return nil
}

var _ ports.TokenStore = (*KeyringStore)(nil)
