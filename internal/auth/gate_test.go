package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
)

const testSecret = "test-secret-at-least-16-chars"

type fakeUserStore struct {
	users map[string]domain.Identity
	delay time.Duration
}

func (f *fakeUserStore) FindIdentity(ctx context.Context, userID string) (domain.Identity, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return domain.Identity{}, ctx.Err()
		}
	}
	identity, ok := f.users[userID]
	if !ok {
		return domain.Identity{}, domain.ErrUserNotFound
	}
	return identity, nil
}

func signToken(t *testing.T, secret string, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := Claims{
		Role: "system_admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func testStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]domain.Identity{
		"user-1": {ID: "user-1", Name: "Admin One", Role: domain.RoleSystemAdmin, Email: "admin@example.com"},
	}}
}

func TestGate_ValidToken(t *testing.T) {
	gate := NewGate(testSecret, testStore(), time.Second)

	token := signToken(t, testSecret, "user-1", time.Now().Add(time.Hour))
	identity, err := gate.Validate(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", identity.ID)
	assert.Equal(t, "Admin One", identity.Name)
	assert.Equal(t, domain.RoleSystemAdmin, identity.Role)
}

func TestGate_InvalidTokens(t *testing.T) {
	gate := NewGate(testSecret, testStore(), time.Second)

	tests := []struct {
		name       string
		credential string
		wantErr    error
	}{
		{"empty credential", "", domain.ErrInvalidToken},
		{"malformed token", "not-a-jwt", domain.ErrInvalidToken},
		{"wrong signature", signToken(t, "another-secret-16-chars!", "user-1", time.Now().Add(time.Hour)), domain.ErrInvalidToken},
		{"expired token", signToken(t, testSecret, "user-1", time.Now().Add(-time.Hour)), domain.ErrExpiredToken},
		{"unknown subject", signToken(t, testSecret, "ghost", time.Now().Add(time.Hour)), domain.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gate.Validate(context.Background(), tt.credential)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGate_MissingSubject(t *testing.T) {
	gate := NewGate(testSecret, testStore(), time.Second)

	token := signToken(t, testSecret, "", time.Now().Add(time.Hour))
	_, err := gate.Validate(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestGate_RejectsNonHMACSigning(t *testing.T) {
	gate := NewGate(testSecret, testStore(), time.Second)

	// alg=none tokens must never pass the signing-method check.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = gate.Validate(context.Background(), signed)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestGate_SlowUserStoreTimesOut(t *testing.T) {
	store := testStore()
	store.delay = 200 * time.Millisecond
	gate := NewGate(testSecret, store, 50*time.Millisecond)

	token := signToken(t, testSecret, "user-1", time.Now().Add(time.Hour))
	_, err := gate.Validate(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
