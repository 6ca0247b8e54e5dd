package models

import "time"

// TokenRecord is the per-user persisted refresh-token state. There is at most
// one live record per username; a nil RefreshToken means the session has been
// revoked (the row itself is never deleted).
type TokenRecord struct {
	UserName           string    `db:"user_name"`
	RefreshToken       *string   `db:"refresh_token"`
	RefreshTokenExpiry time.Time `db:"refresh_token_expiry"`
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
