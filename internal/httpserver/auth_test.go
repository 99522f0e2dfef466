package httpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCheckAdminPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckAdminPassword("hunter2", string(hash)))
	assert.False(t, CheckAdminPassword("wrong", string(hash)))
	assert.False(t, CheckAdminPassword("hunter2", "not-a-hash"))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret")
	require.NoError(t, err)

	assert.NoError(t, parseToken(token, "secret"))
	assert.Error(t, parseToken(token, "other-secret"))
	assert.Error(t, parseToken("garbage", "secret"))
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", extractToken("Bearer abc"))
	assert.Equal(t, "abc", extractToken("bearer abc"))
	assert.Empty(t, extractToken(""))
	assert.Empty(t, extractToken("Basic abc"))
	assert.Empty(t, extractToken("Bearer"))
}
