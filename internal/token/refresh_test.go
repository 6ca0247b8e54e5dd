package token

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefreshTokenEntropy(t *testing.T) {
	tok, err := NewRefreshToken()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(tok)
	require.NoError(t, err, "refresh token must be valid base64")
	assert.Len(t, raw, RefreshTokenBytes, "refresh token must carry 256 bits of entropy")
}

func TestNewRefreshTokenUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		tok, err := NewRefreshToken()
		require.NoError(t, err)
		_, dup := seen[tok]
		require.False(t, dup, "refresh tokens must not repeat")
		seen[tok] = struct{}{}
	}
}
