package database

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"

	"auth-server/shared/interfaces"
	"auth-server/shared/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ interfaces.UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	db     interfaces.DBTX
	pepper string
	logger *zap.Logger
}

// NewPgUserRepository creates a PostgreSQL-backed UserRepository. The pepper
// is applied to passwords via HMAC-SHA256 before bcrypt, so a leaked database
// alone is not enough to brute-force hashes.
func NewPgUserRepository(db interfaces.DBTX, pepper string, logger *zap.Logger) interfaces.UserRepository {
	return &pgUserRepository{
		db:     db,
		pepper: pepper,
		logger: logger.Named("PgUserRepo"),
	}
}

// CreateUser inserts a new user with a freshly hashed password.
func (r *pgUserRepository) CreateUser(ctx context.Context, user *models.User, password string) error {
	hash, err := hashPassword(password, r.pepper)
	if err != nil {
		r.logger.Error("Failed to hash password during user creation", zap.Error(err), zap.String("username", user.Username))
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	query := `INSERT INTO users (username, name, email, password_hash, roles) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("username", user.Username), zap.String("email", user.Email))
	err = r.db.QueryRow(ctx, query, user.Username, user.Name, user.Email, user.PasswordHash, user.Roles).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			logFields := []zap.Field{zap.String("username", user.Username), zap.String("email", user.Email)}
			if pgErr.ConstraintName == "users_email_key" {
				r.logger.Warn("Attempted to create duplicate user by email", logFields...)
				return models.ErrEmailAlreadyExists
			}
			r.logger.Warn("Attempted to create duplicate user by username", logFields...)
			return models.ErrUserAlreadyExists
		}
		r.logger.Error("Failed to create user in postgres", zap.Error(err), zap.String("username", user.Username))
		return fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	r.logger.Info("User created successfully", zap.String("userID", user.ID.String()), zap.String("username", user.Username))
	return nil
}

// FindByName retrieves a user by username.
func (r *pgUserRepository) FindByName(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, name, email, password_hash, roles FROM users WHERE username = $1`
	user := &models.User{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("username", username))
	err := r.db.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username, &user.Name, &user.Email, &user.PasswordHash, &user.Roles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found by username", zap.String("username", username))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by username from postgres", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return user, nil
}

// CheckPassword compares a plain-text password against the user's stored hash.
func (r *pgUserRepository) CheckPassword(user *models.User, password string) bool {
	return checkPasswordHash(password, user.PasswordHash, r.pepper)
}

// ChangePassword verifies the current password and stores a hash of the new one.
func (r *pgUserRepository) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	user, err := r.FindByName(ctx, username)
	if err != nil {
		return err
	}
	if !checkPasswordHash(currentPassword, user.PasswordHash, r.pepper) {
		r.logger.Warn("Password change with wrong current password", zap.String("username", username))
		return models.ErrInvalidCredentials
	}

	newHash, err := hashPassword(newPassword, r.pepper)
	if err != nil {
		r.logger.Error("Failed to hash new password", zap.Error(err), zap.String("username", username))
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE username = $1`
	tag, err := r.db.Exec(ctx, query, username, newHash)
	if err != nil {
		r.logger.Error("Failed to update password hash in postgres", zap.Error(err), zap.String("username", username))
		return fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	r.logger.Info("Password hash updated", zap.String("username", username))
	return nil
}

// GetRoles returns the roles assigned to the user.
func (r *pgUserRepository) GetRoles(ctx context.Context, username string) ([]string, error) {
	query := `SELECT roles FROM users WHERE username = $1`
	var roles []string
	err := r.db.QueryRow(ctx, query, username).Scan(&roles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get roles from postgres", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return roles, nil
}

// AddToRole assigns a role to the user; a no-op if already assigned.
func (r *pgUserRepository) AddToRole(ctx context.Context, username, role string) error {
	query := `UPDATE users SET roles = array_append(roles, $2), updated_at = now()
	          WHERE username = $1 AND NOT ($2 = ANY(roles))`
	_, err := r.db.Exec(ctx, query, username, role)
	if err != nil {
		r.logger.Error("Failed to add role in postgres", zap.Error(err), zap.String("username", username), zap.String("role", role))
		return fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	r.logger.Debug("Role assigned", zap.String("username", username), zap.String("role", role))
	return nil
}

// --- Hashing helpers ---

// applyPepper applies HMAC-SHA256 using the pepper as the key.
func applyPepper(password, pepper string) []byte {
	h := hmac.New(sha256.New, []byte(pepper))
	h.Write([]byte(password))
	return h.Sum(nil)
}

// hashPassword generates a bcrypt hash of the peppered password.
func hashPassword(password, pepper string) (string, error) {
	peppered := applyPepper(password, pepper)
	bytes, err := bcrypt.GenerateFromPassword(peppered, bcrypt.DefaultCost)
	return string(bytes), err
}

// checkPasswordHash compares a plain-text password (after peppering) with a stored hash.
func checkPasswordHash(password, hash, pepper string) bool {
	peppered := applyPepper(password, pepper)
	err := bcrypt.CompareHashAndPassword([]byte(hash), peppered)
	return err == nil
}
