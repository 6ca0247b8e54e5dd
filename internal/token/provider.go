package token

import (
	"fmt"
)

// MinSecretLength is the minimum accepted signing-secret length in bytes.
// HS256 with a shorter key is not worth starting the process for.
const MinSecretLength = 32

// KeyProvider holds the symmetric signing secret and the issuer/audience the
// service signs and validates against. It is built once at startup and never
// mutated; everything that signs or validates tokens receives it explicitly.
type KeyProvider struct {
	secret   []byte
	issuer   string
	audience string
}

// NewKeyProvider validates the configuration and returns a provider.
// A missing or short secret is a startup failure, not a runtime one.
func NewKeyProvider(secret, issuer, audience string) (*KeyProvider, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}
	if issuer == "" {
		return nil, fmt.Errorf("jwt issuer must not be empty")
	}
	if audience == "" {
		return nil, fmt.Errorf("jwt audience must not be empty")
	}
	return &KeyProvider{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}, nil
}

// Issuer returns the configured valid issuer.
func (p *KeyProvider) Issuer() string { return p.issuer }

// Audience returns the configured valid audience.
func (p *KeyProvider) Audience() string { return p.audience }
