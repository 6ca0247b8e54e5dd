package database

import (
	"context"
	"fmt"

	"auth-server/shared/interfaces"
	"auth-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgTokenRecordRepository implements TokenRecordRepository
var _ interfaces.TokenRecordRepository = (*pgTokenRecordRepository)(nil)

type pgTokenRecordRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgTokenRecordRepository creates a PostgreSQL-backed TokenRecordRepository.
func NewPgTokenRecordRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.TokenRecordRepository {
	return &pgTokenRecordRepository{
		db:     db,
		logger: logger.Named("PgTokenRecordRepo"),
	}
}

// FindByUserName retrieves the token record for a user.
func (r *pgTokenRecordRepository) FindByUserName(ctx context.Context, userName string) (*models.TokenRecord, error) {
	query := `SELECT user_name, refresh_token, refresh_token_expiry FROM token_records WHERE user_name = $1`
	record := &models.TokenRecord{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userName", userName))
	err := pgxscan.Get(ctx, r.db, record, query, userName)
	if err != nil {
		if pgxscan.NotFound(err) {
			r.logger.Debug("Token record not found", zap.String("userName", userName))
			return nil, models.ErrRecordNotFound
		}
		r.logger.Error("Failed to get token record from postgres", zap.Error(err), zap.String("userName", userName))
		return nil, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return record, nil
}

// Upsert creates or overwrites the record in a single statement, giving
// per-row serializable semantics without explicit locking.
func (r *pgTokenRecordRepository) Upsert(ctx context.Context, record *models.TokenRecord) error {
	query := `INSERT INTO token_records (user_name, refresh_token, refresh_token_expiry)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (user_name) DO UPDATE
	          SET refresh_token = EXCLUDED.refresh_token,
	              refresh_token_expiry = EXCLUDED.refresh_token_expiry`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userName", record.UserName))
	_, err := r.db.Exec(ctx, query, record.UserName, record.RefreshToken, record.RefreshTokenExpiry)
	if err != nil {
		r.logger.Error("Failed to upsert token record in postgres", zap.Error(err), zap.String("userName", record.UserName))
		return fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return nil
}

// Clear nulls the refresh token. The expiry column is left as is; the absence
// of a token value is the revocation check, not the expiry.
func (r *pgTokenRecordRepository) Clear(ctx context.Context, userName string) error {
	query := `UPDATE token_records SET refresh_token = NULL WHERE user_name = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userName", userName))
	tag, err := r.db.Exec(ctx, query, userName)
	if err != nil {
		r.logger.Error("Failed to clear token record in postgres", zap.Error(err), zap.String("userName", userName))
		return fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Debug("Token record to clear not found", zap.String("userName", userName))
		return models.ErrRecordNotFound
	}
	r.logger.Info("Token record cleared", zap.String("userName", userName))
	return nil
}
