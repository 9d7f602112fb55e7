package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/infrastructure/tokenstore"
)

// MockFlow is a mock implementation of Flow
type MockFlow struct {
	mock.Mock
}

func (m *MockFlow) Run(ctx context.Context, out io.Writer) (*domain.Token, error) {
	args := m.Called(ctx, out)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Token), args.Error(1)
}

func (m *MockFlow) Refresh(ctx context.Context, refreshToken string) (*domain.Token, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Token), args.Error(1)
}

// probeCounter records probe calls and answers with err
type probeCounter struct {
	calls int
	err   error
}

func (p *probeCounter) probe(ctx context.Context, accessToken string) error {
	p.calls++
	return p.err
}

func seededStore(t *testing.T, token *domain.Token) *tokenstore.MemoryStore {
	store := tokenstore.NewMemoryStore()
	if token != nil {
		require.NoError(t, store.Save(context.Background(), "SPOTIFY", token))
	}
	return store
}

// TestTokenCache_IsValid tests the three-part validity rule
func TestTokenCache_IsValid(t *testing.T) {
	future := time.Now().Add(time.Hour)
	tests := []struct {
		name       string
		stored     *domain.Token
		probeErr   error
		want       bool
		wantProbes int
	}{
		{name: "NoToken", stored: nil, want: false},
		{name: "EmptyAccessToken", stored: &domain.Token{Expiry: future}, want: false},
		{name: "ExpiredSkipsProbe", stored: &domain.Token{AccessToken: "a", Expiry: time.Now().Add(-time.Minute)}, want: false},
		{name: "ProbeRejects", stored: &domain.Token{AccessToken: "a", Expiry: future}, probeErr: errors.New("401"), want: false, wantProbes: 1},
		{name: "ProbeAccepts", stored: &domain.Token{AccessToken: "a", Expiry: future}, want: true, wantProbes: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := &probeCounter{err: tt.probeErr}
			cache := NewTokenCache("SPOTIFY", seededStore(t, tt.stored), &MockFlow{}, probe.probe)

			assert.Equal(t, tt.want, cache.IsValid(context.Background()))
			assert.Equal(t, tt.wantProbes, probe.calls)
		})
	}
}

// TestTokenCache_ExpiredNeverValid property-tests that past expiries fail without probing
func TestTokenCache_ExpiredNeverValid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ago := time.Duration(rapid.Int64Range(0, int64(30*24*time.Hour)).Draw(rt, "ago"))
		store := tokenstore.NewMemoryStore()
		_ = store.Save(context.Background(), "LINKEDIN", &domain.Token{
			AccessToken: rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "access"),
			Expiry:      time.Now().Add(-ago),
		})
		probe := &probeCounter{}
		cache := NewTokenCache("LINKEDIN", store, &MockFlow{}, probe.probe)

		if cache.IsValid(context.Background()) {
			rt.Fatalf("expired token reported valid")
		}
		if probe.calls != 0 {
			rt.Fatalf("expired token was probed")
		}
	})
}

// TestTokenCache_GetOrRefresh_ReusesValidToken tests that valid tokens are reused and probed once
func TestTokenCache_GetOrRefresh_ReusesValidToken(t *testing.T) {
	flow := &MockFlow{}
	probe := &probeCounter{}
	cache := NewTokenCache("SPOTIFY", seededStore(t, &domain.Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)}), flow, probe.probe)

	for i := 0; i < 3; i++ {
		token, err := cache.GetOrRefresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "a", token.AccessToken)
	}
	assert.Equal(t, 1, probe.calls)
	flow.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	flow.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

// TestTokenCache_GetOrRefresh_PrefersRefreshToken tests refresh before a full flow
func TestTokenCache_GetOrRefresh_PrefersRefreshToken(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, &domain.Token{AccessToken: "old", RefreshToken: "r1", Expiry: time.Now().Add(-time.Hour)})

	flow := &MockFlow{}
	flow.On("Refresh", mock.Anything, "r1").Return(&domain.Token{AccessToken: "new", Expiry: time.Now().Add(time.Hour)}, nil)

	cache := NewTokenCache("SPOTIFY", store, flow, nil)
	token, err := cache.GetOrRefresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", token.AccessToken)
	assert.Equal(t, "r1", token.RefreshToken)

	persisted, err := store.Load(ctx, "SPOTIFY")
	require.NoError(t, err)
	assert.Equal(t, "new", persisted.AccessToken)
	assert.Equal(t, "r1", persisted.RefreshToken)

	flow.AssertExpectations(t)
	flow.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

// TestTokenCache_GetOrRefresh_FallsBackToFlow tests the full flow after a failed refresh
func TestTokenCache_GetOrRefresh_FallsBackToFlow(t *testing.T) {
	store := seededStore(t, &domain.Token{AccessToken: "old", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour)})

	flow := &MockFlow{}
	flow.On("Refresh", mock.Anything, "revoked").Return(nil, errors.New("invalid_grant"))
	flow.On("Run", mock.Anything, mock.Anything).Return(&domain.Token{AccessToken: "fresh", RefreshToken: "r2", Expiry: time.Now().Add(time.Hour)}, nil)

	cache := NewTokenCache("SPOTIFY", store, flow, nil, WithPromptOutput(io.Discard))
	token, err := cache.GetOrRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token.AccessToken)
	assert.Equal(t, "r2", token.RefreshToken)
	flow.AssertExpectations(t)
}

// TestTokenCache_GetOrRefresh_FlowFailure tests that flow errors surface
func TestTokenCache_GetOrRefresh_FlowFailure(t *testing.T) {
	flow := &MockFlow{}
	flow.On("Run", mock.Anything, mock.Anything).Return(nil, domain.ErrAuthorizationTimeout)

	cache := NewTokenCache("SPOTIFY", tokenstore.NewMemoryStore(), flow, nil)
	_, err := cache.GetOrRefresh(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthorizationTimeout)
	flow.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

// TestTokenCache_InvalidateThenForceRefresh tests recovery from a rejected token
func TestTokenCache_InvalidateThenForceRefresh(t *testing.T) {
	store := seededStore(t, &domain.Token{AccessToken: "a", RefreshToken: "r", Expiry: time.Now().Add(time.Hour)})
	flow := &MockFlow{}
	flow.On("Refresh", mock.Anything, "r").Return(&domain.Token{AccessToken: "b", Expiry: time.Now().Add(time.Hour)}, nil).Once()

	cache := NewTokenCache("SPOTIFY", store, flow, nil)
	require.True(t, cache.IsValid(context.Background()))

	cache.Invalidate()
	assert.False(t, cache.IsValid(context.Background()))

	token, err := cache.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", token.AccessToken)
	assert.True(t, cache.IsValid(context.Background()))
	flow.AssertExpectations(t)
}

// TestTokenCache_LoginLogoutStatus tests explicit login and logout
func TestTokenCache_LoginLogoutStatus(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	flow := &MockFlow{}
	expiry := time.Now().Add(time.Hour)
	flow.On("Run", mock.Anything, mock.Anything).Return(&domain.Token{AccessToken: "a", RefreshToken: "r", Expiry: expiry}, nil)

	cache := NewTokenCache("LINKEDIN", store, flow, nil)
	assert.False(t, cache.Status(ctx).Authenticated)

	_, err := cache.Login(ctx)
	require.NoError(t, err)

	status := cache.Status(ctx)
	assert.True(t, status.Authenticated)
	assert.True(t, status.HasRefreshToken)
	assert.True(t, expiry.Equal(status.Expiry))

	require.NoError(t, cache.Logout(ctx))
	assert.False(t, cache.Status(ctx).Authenticated)
	persisted, err := store.Load(ctx, "LINKEDIN")
	require.NoError(t, err)
	assert.Nil(t, persisted)
}
