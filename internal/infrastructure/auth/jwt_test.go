package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/handmade/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "handmade-identity",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := newTestJWTService()

	token, issued, err := svc.IssueToken("maker-42", "ada", RoleMaker)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "maker-42", claims.Actor())
	assert.Equal(t, "ada", claims.Username)
	assert.True(t, claims.HasRole(RoleMaker))
	assert.False(t, claims.HasRole(RoleOperator))
	assert.InDelta(t, (15 * time.Minute).Seconds(), claims.RemainingTTL().Seconds(), 5)
}

func TestJWTService_ValidateToken_Rejects(t *testing.T) {
	svc := newTestJWTService()

	t.Run("missing actor cannot be issued", func(t *testing.T) {
		_, _, err := svc.IssueToken("", "ada")
		assert.ErrorIs(t, err, ErrMissingActor)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-chars!!", Issuer: "handmade-identity", AccessTokenExpiration: time.Minute})
		token, _, err := other.IssueToken("maker-1", "")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else", AccessTokenExpiration: time.Minute})
		token, _, err := other.IssueToken("maker-1", "")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := newTestJWTService()
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := past.IssueToken("maker-1", "")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("not yet valid", func(t *testing.T) {
		future := newTestJWTService()
		future.now = func() time.Time { return time.Now().Add(time.Hour) }
		token, _, err := future.IssueToken("maker-1", "")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "maker-1",
			Issuer:    "handmade-identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "handmade-identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrMissingActor)
	})
}
