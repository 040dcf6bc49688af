package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidatePair(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, 7*24*time.Hour)

	pair, err := tm.GeneratePair(42, "renter@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := tm.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "renter@example.com", claims.Email)
	assert.Equal(t, TokenTypeAccess, claims.Type)

	claims, err = tm.ValidateRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
}

func TestValidateRejectsWrongTokenType(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, 7*24*time.Hour)
	pair, err := tm.GeneratePair(1, "a@b.c")
	require.NoError(t, err)

	_, err = tm.ValidateAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = tm.ValidateRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute, -time.Minute)
	pair, err := tm.GeneratePair(1, "a@b.c")
	require.NoError(t, err)

	_, err = tm.ValidateAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, time.Hour)
	other := NewTokenManager("other-secret", time.Hour, time.Hour)

	pair, err := other.GeneratePair(1, "a@b.c")
	require.NoError(t, err)

	_, err = tm.ValidateAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2!")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2!", hash)

	assert.True(t, CheckPassword(hash, "hunter2!"))
	assert.False(t, CheckPassword(hash, "hunter3!"))
}
