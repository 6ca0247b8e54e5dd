package token

import (
	"errors"
	"fmt"
	"time"

	"auth-server/internal/domain"
	"auth-server/shared/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Codec signs and validates access tokens against a single KeyProvider.
// It exposes two validation modes on purpose: Validate (full, including
// expiry) for paths that require current liveness, and ParseForRefresh
// (signature, issuer and audience only) so a just-expired token can still be
// exchanged for a new pair without re-presenting a password.
type Codec struct {
	keys *KeyProvider
}

// NewCodec creates a codec bound to the given key provider.
func NewCodec(keys *KeyProvider) *Codec {
	return &Codec{keys: keys}
}

// Issue signs a new access token carrying the username, its roles and a
// fresh jti session id. Expiry is now + ttl.
func (c *Codec) Issue(name string, roles []string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &domain.Claims{
		Name:  name,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   name,
			Issuer:    c.keys.issuer,
			Audience:  jwt.ClaimStrings{c.keys.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.keys.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate fully validates an access token: signature, signing method,
// issuer, audience and expiry.
func (c *Codec) Validate(tokenString string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.keys.issuer),
		jwt.WithAudience(c.keys.audience),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, models.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, models.ErrTokenMalformed
		default:
			return nil, models.ErrTokenInvalid
		}
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

// ParseForRefresh validates the signature, signing method, issuer and
// audience of an access token but deliberately not its expiry. A valid
// signature proves a prior legitimate login, which is all the refresh path
// requires; the stored refresh record carries its own expiry.
func (c *Codec) ParseForRefresh(tokenString string) (*domain.Claims, error) {
	parser := jwt.NewParser(
		jwt.WithoutClaimsValidation(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)

	token, err := parser.ParseWithClaims(tokenString, &domain.Claims{}, c.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, models.ErrTokenMalformed
		}
		return nil, models.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, models.ErrTokenInvalid
	}

	// Claims validation is off, so issuer/audience are checked by hand.
	if claims.Issuer != c.keys.issuer {
		return nil, models.ErrTokenInvalid
	}
	if !hasAudience(claims.Audience, c.keys.audience) {
		return nil, models.ErrTokenInvalid
	}

	return claims, nil
}

func (c *Codec) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return c.keys.secret, nil
}

func hasAudience(aud jwt.ClaimStrings, expected string) bool {
	for _, a := range aud {
		if a == expected {
			return true
		}
	}
	return false
}
