package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tilapp/til/internal/models"
)

// sessionRepository implements SessionRepository
type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) *sessionRepository {
	return &sessionRepository{
		db: db,
	}
}

// Create inserts a new session
func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query, session.ID, session.UserID, session.ExpiresAt.UTC()); err != nil {
		if isMissingReference(err) {
			return fmt.Errorf("session owner: %w", models.ErrNotFound)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetActiveByID retrieves a session that has not expired yet
func (r *sessionRepository) GetActiveByID(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, user_id, csrf_token, expires_at, created_at
		FROM sessions
		WHERE id = ? AND expires_at > ?
	`

	session := &models.Session{}
	var csrfToken sql.NullString
	err := r.db.QueryRowContext(ctx, query, id, time.Now().UTC()).Scan(
		&session.ID,
		&session.UserID,
		&csrfToken,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if csrfToken.Valid {
		session.CSRFToken = &csrfToken.String
	}

	return session, nil
}

// SetCSRFToken stores or clears (nil) the CSRF token of a session
func (r *sessionRepository) SetCSRFToken(ctx context.Context, id string, token *string) error {
	query := `UPDATE sessions SET csrf_token = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, token, id); err != nil {
		return fmt.Errorf("failed to update session csrf token: %w", err)
	}

	return nil
}

// DeleteByID removes a session
func (r *sessionRepository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteExpired removes every session that expired at or before the given time
func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	query := `DELETE FROM sessions WHERE expires_at <= ?`

	result, err := r.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
