package models

import (
	"testing"

	"counseling-platform/backend/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestTokenRole(t *testing.T) {
	assert.Equal(t, jwt.RoleUser, (&User{Role: "user"}).TokenRole())
	assert.Equal(t, jwt.RoleCounselor, (&User{Role: "counselor"}).TokenRole())
	assert.Equal(t, jwt.RoleAdmin, (&User{Role: "admin"}).TokenRole())
	assert.Equal(t, jwt.RoleUser, (&User{Role: "unknown"}).TokenRole())
}
