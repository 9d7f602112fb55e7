package tokenstore

import (
	"fmt"
	"strings"
	"time"
)

const (
	accessTokenSuffix  = "_ACCESS_TOKEN"
	expirySuffix       = "_TOKEN_EXPIRY"
	refreshTokenSuffix = "_REFRESH_TOKEN"
)

// Keys returns the variable names a prefix is persisted under
func Keys(prefix string) (access, expiry, refresh string) {
	p := strings.ToUpper(prefix)
	return p + accessTokenSuffix, p + expirySuffix, p + refreshTokenSuffix
}

// legacyExpiryLayout is a naive local ISO timestamp with optional fractional seconds
const legacyExpiryLayout = "2006-01-02T15:04:05.999999"

// FormatExpiry renders an expiry for persistence
func FormatExpiry(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseExpiry accepts RFC 3339 or a naive local ISO timestamp
func ParseExpiry(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(legacyExpiryLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid token expiry %q: %w", s, err)
	}
	return t, nil
}
