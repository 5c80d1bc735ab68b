package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	s := NewService("test-secret", time.Hour)

	token, err := s.GenerateToken(7, "user@example.com", RoleUser)
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, RoleUser, claims.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	s := NewService("test-secret", time.Hour)
	other := NewService("other-secret", time.Hour)

	token, err := s.GenerateToken(7, "user@example.com", RoleUser)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpiredToken(t *testing.T) {
	s := NewService("test-secret", -time.Minute)

	token, err := s.GenerateToken(7, "user@example.com", RoleUser)
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestHasRole(t *testing.T) {
	assert.True(t, (&Claims{Role: RoleCounselor}).HasRole(RoleCounselor))
	assert.False(t, (&Claims{Role: RoleUser}).HasRole(RoleCounselor))
	assert.True(t, (&Claims{Role: RoleAdmin}).HasRole(RoleCounselor))
}
