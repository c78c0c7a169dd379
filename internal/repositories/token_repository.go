package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tilapp/til/internal/models"
)

// tokenRepository implements TokenRepository
type tokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *sql.DB) *tokenRepository {
	return &tokenRepository{
		db: db,
	}
}

// Create inserts a new token into the database
func (r *tokenRepository) Create(ctx context.Context, token *models.Token) error {
	query := `INSERT INTO tokens (value, user_id) VALUES (?, ?)`

	result, err := r.db.ExecContext(ctx, query, token.Value, token.UserID)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("token: %w", models.ErrConflict)
		}
		if isMissingReference(err) {
			return fmt.Errorf("token owner: %w", models.ErrNotFound)
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	token.ID = int(id)
	return nil
}

// GetUserByValue retrieves the owner of a token.
// Tokens of soft-deleted users do not resolve.
func (r *tokenRepository) GetUserByValue(ctx context.Context, value string) (*models.User, error) {
	query := `
		SELECT u.id, u.name, u.username, u.email, u.password_hash, u.role, u.deleted_at
		FROM tokens t
		INNER JOIN users u ON u.id = t.user_id
		WHERE t.value = ? AND u.deleted_at IS NULL
		LIMIT 1
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("token: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by token: %w", err)
	}

	return user, nil
}

// DeleteByUserID removes every token of a user
func (r *tokenRepository) DeleteByUserID(ctx context.Context, userID int) (int, error) {
	query := `DELETE FROM tokens WHERE user_id = ?`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
