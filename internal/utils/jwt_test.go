package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", "alice", RoleCollege, "college-1", 5)
	require.NoError(t, err)

	claims, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, RoleCollege, claims.Role)
	assert.Equal(t, "college-1", claims.ScopeID)
}

func TestParseRejectsWrongSecretAndExpired(t *testing.T) {
	tok, err := NewAccessToken("secret", "alice", RoleAdmin, "", 5)
	require.NoError(t, err)
	_, err = ParseAccessToken("other", tok.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	expired, err := NewAccessToken("secret", "alice", RoleAdmin, "", -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", expired.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestEmptySecretRefused(t *testing.T) {
	_, err := NewAccessToken("", "a", RoleAdmin, "", 1)
	assert.Error(t, err)
}
