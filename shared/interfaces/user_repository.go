package interfaces

import (
	"context"

	"auth-server/shared/models"
)

// UserRepository is the credential-store boundary the auth service depends on.
// Password hashing lives entirely behind this interface; the service never
// sees a hash or a hashing algorithm.
type UserRepository interface {
	// CreateUser inserts a new user, hashing the given plain-text password.
	// Returns models.ErrUserAlreadyExists / models.ErrEmailAlreadyExists on
	// unique-constraint violations.
	CreateUser(ctx context.Context, user *models.User, password string) error

	// FindByName retrieves a user by username.
	// Returns models.ErrUserNotFound if the user does not exist.
	FindByName(ctx context.Context, username string) (*models.User, error)

	// CheckPassword reports whether the plain-text password matches the
	// user's stored hash.
	CheckPassword(user *models.User, password string) bool

	// ChangePassword verifies the current password and replaces it with the
	// new one. Returns models.ErrUserNotFound or models.ErrInvalidCredentials.
	ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error

	// GetRoles returns the roles assigned to the user.
	GetRoles(ctx context.Context, username string) ([]string, error)

	// AddToRole assigns a role to the user if not already assigned.
	AddToRole(ctx context.Context, username, role string) error
}
