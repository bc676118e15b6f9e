package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(TokenConfig{})
	require.Error(t, err)
	require.EqualError(t, err, "auth: token secret must be provided")
}

func TestIssueAndVerify(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewTokenService(TokenConfig{
		Secret:   "super-secret",
		Issuer:   "vibeplanner",
		TokenTTL: time.Hour,
		Clock:    now,
	})
	require.NoError(t, err)

	token, err := svc.Issue(TokenInput{
		UserID:   "user-123",
		Email:    "ada@example.com",
		Name:     "Ada",
		Audience: []string{"api"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)

	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "ada@example.com", claims.Email)
	require.Equal(t, "Ada", claims.Name)
	require.Equal(t, "vibeplanner", claims.Issuer)
	require.Equal(t, jwt.ClaimStrings{"api"}, claims.Audience)
	require.True(t, claims.IssuedAt.Time.Equal(current))
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(time.Hour)))
}

func TestIssueRequiresUserID(t *testing.T) {
	svc, err := NewTokenService(TokenConfig{Secret: "secret"})
	require.NoError(t, err)

	_, err = svc.Issue(TokenInput{UserID: "   "})
	require.Error(t, err)
}

func TestVerifyInvalidSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC) }

	issuer, err := NewTokenService(TokenConfig{Secret: "issuer-secret", TokenTTL: time.Minute, Clock: now})
	require.NoError(t, err)

	token, err := issuer.Issue(TokenInput{UserID: "user-123"})
	require.NoError(t, err)

	verifier, err := NewTokenService(TokenConfig{Secret: "other-secret", TokenTTL: time.Minute, Clock: now})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))
}

func TestVerifyExpired(t *testing.T) {
	current := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewTokenService(TokenConfig{Secret: "secret", TokenTTL: time.Minute, Clock: now})
	require.NoError(t, err)

	token, err := svc.Issue(TokenInput{UserID: "user-123"})
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = svc.Verify(token)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestVerifyIssuerMismatch(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC) }

	issuer, err := NewTokenService(TokenConfig{Secret: "secret", Issuer: "other", Clock: now})
	require.NoError(t, err)

	token, err := issuer.Issue(TokenInput{UserID: "user-123"})
	require.NoError(t, err)

	verifier, err := NewTokenService(TokenConfig{Secret: "secret", Issuer: "vibeplanner", Clock: now})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}
