package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tilapp/til/internal/models"
)

// resetPasswordTokenRepository implements ResetPasswordTokenRepository
type resetPasswordTokenRepository struct {
	db *sql.DB
}

// NewResetPasswordTokenRepository creates a new reset password token repository
func NewResetPasswordTokenRepository(db *sql.DB) *resetPasswordTokenRepository {
	return &resetPasswordTokenRepository{
		db: db,
	}
}

// Create inserts a new reset token. CreatedAt is stored in UTC and defaults to now;
// expiry checks compare it with the application clock, not the server's.
func (r *resetPasswordTokenRepository) Create(ctx context.Context, token *models.ResetPasswordToken) error {
	query := `INSERT INTO reset_password_tokens (token, user_id, created_at) VALUES (?, ?, ?)`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	token.CreatedAt = token.CreatedAt.UTC()

	result, err := r.db.ExecContext(ctx, query, token.Token, token.UserID, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reset password token: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	token.ID = int(id)
	return nil
}

// GetByToken retrieves a reset token by its value
func (r *resetPasswordTokenRepository) GetByToken(ctx context.Context, token string) (*models.ResetPasswordToken, error) {
	query := `SELECT id, token, user_id, created_at FROM reset_password_tokens WHERE token = ?`

	result := &models.ResetPasswordToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&result.ID, &result.Token, &result.UserID, &result.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reset password token: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset password token: %w", err)
	}

	return result, nil
}

// DeleteByID removes a reset token
func (r *resetPasswordTokenRepository) DeleteByID(ctx context.Context, id int) error {
	query := `DELETE FROM reset_password_tokens WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete reset password token: %w", err)
	}

	return nil
}

// DeleteCreatedBefore removes every reset token created at or before the given time
func (r *resetPasswordTokenRepository) DeleteCreatedBefore(ctx context.Context, before time.Time) (int, error) {
	query := `DELETE FROM reset_password_tokens WHERE created_at <= ?`

	result, err := r.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset password tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
