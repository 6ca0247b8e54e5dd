package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyProviderRejectsShortSecret(t *testing.T) {
	_, err := NewKeyProvider("too-short", "iss", "aud")
	require.Error(t, err, "a short secret must prevent startup")
	assert.Contains(t, err.Error(), "at least")

	_, err = NewKeyProvider("", "iss", "aud")
	require.Error(t, err, "a missing secret must prevent startup")
}

func TestNewKeyProviderRequiresIssuerAndAudience(t *testing.T) {
	secret := strings.Repeat("s", MinSecretLength)

	_, err := NewKeyProvider(secret, "", "aud")
	assert.Error(t, err)

	_, err = NewKeyProvider(secret, "iss", "")
	assert.Error(t, err)
}

func TestNewKeyProviderAcceptsValidConfig(t *testing.T) {
	secret := strings.Repeat("s", MinSecretLength)
	keys, err := NewKeyProvider(secret, "iss", "aud")
	require.NoError(t, err)
	assert.Equal(t, "iss", keys.Issuer())
	assert.Equal(t, "aud", keys.Audience())
}
