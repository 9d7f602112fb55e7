package tokenstore

import (
	"context"
	"strings"
	"sync"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
)

// MemoryStore keeps tokens in process memory
type MemoryStore struct {
	tokens map[string]domain.Token
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]domain.Token)}
}

// Load returns a copy of the stored token or nil
func (s *MemoryStore) Load(ctx context.Context, prefix string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[strings.ToUpper(prefix)]
	if !ok {
		return nil, nil
	}
	return &token, nil
}

// Save stores a copy of the token
func (s *MemoryStore) Save(ctx context.Context, prefix string, token *domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[strings.ToUpper(prefix)] = *token
	return nil
}

// Clear removes the token
func (s *MemoryStore) Clear(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, strings.ToUpper(prefix))
	return nil
}

var _ ports.TokenStore = (*MemoryStore)(nil)
