package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// RefreshTokenBytes is the entropy of a refresh token before encoding.
const RefreshTokenBytes = 32

// NewRefreshToken returns an opaque refresh token: 256 bits from the
// cryptographic random source, base64-encoded. It has no internal structure
// and is treated as a bearer secret.
func NewRefreshToken() (string, error) {
	buf := make([]byte, RefreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
