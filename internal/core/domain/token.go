package domain

import (
	"time"
)

// Token is the persisted credential of an OAuth plugin
type Token struct {
	AccessToken  string
	RefreshToken string // Optional, some providers never issue one
	Expiry       time.Time
}

// IsExpired reports whether the token has no expiry or has passed it
func (t *Token) IsExpired() bool {
	if t == nil || t.Expiry.IsZero() {
		return true
	}
	return !time.Now().Before(t.Expiry)
}

// IsUsable reports whether the token carries an access token that has not expired.
// It does not contact the service.
func (t *Token) IsUsable() bool {
	return t != nil && t.AccessToken != "" && !t.IsExpired()
}

// CanRefresh reports whether a refresh token is available
func (t *Token) CanRefresh() bool {
	return t != nil && t.RefreshToken != ""
}

// Merge returns a copy of next that keeps the current refresh token when next carries none
func (t *Token) Merge(next *Token) *Token {
	merged := *next
	if merged.RefreshToken == "" && t != nil {
		merged.RefreshToken = t.RefreshToken
	}
	return &merged
}

// DefaultTokenLifetime applies when a token endpoint omits expires_in
const DefaultTokenLifetime = time.Hour

// NewToken builds a token, falling back to DefaultTokenLifetime from now when expiry is unknown
func NewToken(access, refresh string, expiry, now time.Time) *Token {
	if expiry.IsZero() {
		expiry = now.Add(DefaultTokenLifetime)
	}
	return &Token{
		AccessToken:  access,
		RefreshToken: refresh,
		Expiry:       expiry,
	}
}
