package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citamed/citamed/internal/config"
	"github.com/citamed/citamed/internal/domain"
)

func newTestManager(ttl time.Duration) *JWTManager {
	return NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-that-is-long-enough-00",
		AccessTokenTTL:  ttl,
		RefreshTokenTTL: ttl * 2,
		Issuer:          "citamed-test",
	})
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	m := newTestManager(time.Hour)
	userID := uuid.New()

	pair, jti, err := m.GenerateTokenPair(&domain.Claims{UserID: userID, Email: "a@b.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	assert.Equal(t, "Bearer", pair.TokenType)

	claims, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Empty(t, claims.JTI, "access tokens carry no jti")

	refreshClaims, err := m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, jti, refreshClaims.JTI)
}

func TestTokenTypeMismatch(t *testing.T) {
	m := newTestManager(time.Hour)
	pair, _, err := m.GenerateTokenPair(&domain.Claims{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
	_, err = m.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := newTestManager(-time.Hour)
	pair, _, err := m.GenerateTokenPair(&domain.Claims{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestForeignSignatureRejected(t *testing.T) {
	m := newTestManager(time.Hour)
	other := NewJWTManager(config.JWTConfig{
		Secret:          "completely-different-secret-000000",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: time.Hour,
		Issuer:          "citamed-test",
	})

	pair, _, err := other.GenerateTokenPair(&domain.Claims{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestGarbageTokenRejected(t *testing.T) {
	m := newTestManager(time.Hour)
	_, err := m.ValidateAccessToken("definitely.not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
