package services

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-join/models"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestCurrentUserID_FromTokenClaims(t *testing.T) {
	users := &fakeUserAPI{profile: &models.Profile{ID: 999}}
	token := signedToken(t, jwt.MapClaims{"user_id": float64(7), "role": "player"})
	svc := NewIdentityService(token, users, testLogger())

	id, err := svc.CurrentUserID(context.Background())

	require.NoError(t, err)
	require.Equal(t, "7", id)
	require.Zero(t, users.calls, "token claims must satisfy the lookup without a profile fetch")
}

func TestCurrentUserID_SubClaimFallback(t *testing.T) {
	users := &fakeUserAPI{}
	token := signedToken(t, jwt.MapClaims{"sub": "u-7"})
	svc := NewIdentityService(token, users, testLogger())

	id, err := svc.CurrentUserID(context.Background())

	require.NoError(t, err)
	require.Equal(t, "u-7", id)
}

func TestCurrentUserID_ProfileFallbackForOpaqueToken(t *testing.T) {
	users := &fakeUserAPI{profile: &models.Profile{ID: 7}}
	svc := NewIdentityService("opaque-session-token", users, testLogger())

	id, err := svc.CurrentUserID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "7", id)
	require.Equal(t, 1, users.calls)

	// Второй вызов обслуживается кэшем сессии.
	id, err = svc.CurrentUserID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "7", id)
	require.Equal(t, 1, users.calls)
}

func TestCurrentUserID_Unresolvable(t *testing.T) {
	users := &fakeUserAPI{profile: &models.Profile{}}
	svc := NewIdentityService("", users, testLogger())

	_, err := svc.CurrentUserID(context.Background())
	require.ErrorIs(t, err, ErrIdentityUnavailable)
}
