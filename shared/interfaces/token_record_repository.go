package interfaces

import (
	"context"

	"auth-server/shared/models"
)

// TokenRecordRepository persists the per-user refresh-token record.
// Implementations must give per-row serializable semantics: Upsert is a
// single INSERT ... ON CONFLICT statement, so concurrent refreshes for the
// same user resolve as last-writer-wins.
type TokenRecordRepository interface {
	// FindByUserName retrieves the record for a user.
	// Returns models.ErrRecordNotFound if no record exists.
	FindByUserName(ctx context.Context, userName string) (*models.TokenRecord, error)

	// Upsert creates the record if absent, else overwrites refresh_token and
	// refresh_token_expiry in place.
	Upsert(ctx context.Context, record *models.TokenRecord) error

	// Clear nulls the refresh token, leaving the stored expiry untouched.
	// Returns models.ErrRecordNotFound if no record exists.
	Clear(ctx context.Context, userName string) error
}
