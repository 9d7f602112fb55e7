package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestToken_IsUsable tests the local validity rule
func TestToken_IsUsable(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		token *Token
		want  bool
	}{
		{"NilToken", nil, false},
		{"EmptyAccessToken", &Token{Expiry: now.Add(time.Hour)}, false},
		{"ZeroExpiry", &Token{AccessToken: "a"}, false},
		{"Expired", &Token{AccessToken: "a", Expiry: now.Add(-time.Second)}, false},
		{"Fresh", &Token{AccessToken: "a", Expiry: now.Add(time.Hour)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.IsUsable())
		})
	}
}

// TestToken_PastExpiryIsNeverUsable property-tests that a past expiry invalidates any token
func TestToken_PastExpiryIsNeverUsable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		access := rapid.String().Draw(t, "access")
		ago := rapid.Int64Range(1, int64(365*24*time.Hour)).Draw(t, "ago")
		token := &Token{AccessToken: access, Expiry: time.Now().Add(-time.Duration(ago))}
		if token.IsUsable() {
			t.Fatalf("token expired %v ago reported usable", time.Duration(ago))
		}
	})
}

// TestToken_Merge tests that refresh tokens survive responses without one
func TestToken_Merge(t *testing.T) {
	current := &Token{AccessToken: "old", RefreshToken: "refresh"}

	merged := current.Merge(&Token{AccessToken: "new"})
	assert.Equal(t, "new", merged.AccessToken)
	assert.Equal(t, "refresh", merged.RefreshToken)

	rotated := current.Merge(&Token{AccessToken: "new", RefreshToken: "rotated"})
	assert.Equal(t, "rotated", rotated.RefreshToken)

	var empty *Token
	assert.Equal(t, "", empty.Merge(&Token{AccessToken: "x"}).RefreshToken)
}

// TestNewToken_DefaultLifetime tests the fallback lifetime for tokens without expiry
func TestNewToken_DefaultLifetime(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	token := NewToken("a", "", time.Time{}, now)
	assert.Equal(t, now.Add(DefaultTokenLifetime), token.Expiry)

	explicit := now.Add(10 * time.Minute)
	assert.Equal(t, explicit, NewToken("a", "r", explicit, now).Expiry)
}
