package domain

import "github.com/golang-jwt/jwt/v5"

// Claims represents the JWT claims embedded in access tokens. Name carries the
// username; jti (RegisteredClaims.ID) is a unique per-token session id.
type Claims struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}
