package service

import (
	"context"

	"auth-server/internal/domain"
	"auth-server/shared/models"
)

// AuthService is the token lifecycle orchestrator: it owns login, refresh and
// revoke, and delegates user CRUD to the credential store.
type AuthService interface {
	// Register creates a new user with the default "User" role.
	Register(ctx context.Context, userName, email, name, password string) (*models.User, error)

	// Login verifies credentials and issues an access/refresh token pair,
	// persisting the refresh token. Wrong username and wrong password are
	// indistinguishable to the caller.
	Login(ctx context.Context, userName, password string) (*models.TokenPair, error)

	// Refresh exchanges a signed (possibly expired) access token plus the
	// matching stored refresh token for a new pair, rotating the stored
	// refresh token. Any failed check yields models.ErrTokenInvalid.
	Refresh(ctx context.Context, accessToken, refreshToken string) (*models.TokenPair, error)

	// Revoke clears the user's stored refresh token. The caller's identity
	// must come from a fully validated, non-expired access token.
	Revoke(ctx context.Context, userName string) error

	// ChangePassword delegates to the credential store.
	ChangePassword(ctx context.Context, userName, currentPassword, newPassword string) error

	// ValidateAccessToken fully validates an access token, expiry included.
	ValidateAccessToken(ctx context.Context, tokenString string) (*domain.Claims, error)
}
