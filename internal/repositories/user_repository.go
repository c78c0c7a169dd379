package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

const userColumns = `id, name, username, email, password_hash, role, deleted_at`

// userRepository implements UserRepository
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var deletedAt sql.NullTime
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&deletedAt,
	); err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		user.DeletedAt = &t
	}
	return user, nil
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, username, email, password_hash, role)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, user.Name, user.Username, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("user %q: %w", user.Username, models.ErrConflict)
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = int(id)
	return nil
}

// CreateExternal inserts a new user linked to an OAuth provider account.
// Both rows are written in one transaction.
func (r *userRepository) CreateExternal(ctx context.Context, user *models.User, provider, subject string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO users (name, username, email, password_hash, role)
		VALUES (?, ?, ?, ?, ?)
	`, user.Name, user.Username, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("user %q: %w", user.Username, models.ErrConflict)
		}
		r.logger.Error("failed to create external user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	query := `INSERT INTO external_identities (provider, subject, user_id) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, provider, subject, id); err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%s identity %q: %w", provider, subject, models.ErrConflict)
		}
		r.logger.Error("failed to link external identity", zap.Error(err))
		return fmt.Errorf("failed to link external identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	user.ID = int(id)
	return nil
}

// getOne runs a single-row user query and maps sql.ErrNoRows to models.ErrNotFound
func (r *userRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByID retrieves an active user by ID
func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND deleted_at IS NULL`
	return r.getOne(ctx, query, id)
}

// GetByIDWithDeleted retrieves a user by ID whether or not it was soft-deleted
func (r *userRepository) GetByIDWithDeleted(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByUsername retrieves an active user by exact username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? AND deleted_at IS NULL LIMIT 1`
	return r.getOne(ctx, query, username)
}

// GetByExternalIdentity retrieves the active user linked to a provider account
func (r *userRepository) GetByExternalIdentity(ctx context.Context, provider, subject string) (*models.User, error) {
	query := `
		SELECT u.id, u.name, u.username, u.email, u.password_hash, u.role, u.deleted_at
		FROM external_identities e
		INNER JOIN users u ON u.id = e.user_id
		WHERE e.provider = ? AND e.subject = ? AND u.deleted_at IS NULL
	`
	return r.getOne(ctx, query, provider, subject)
}

// GetByEmail retrieves an active user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? AND deleted_at IS NULL LIMIT 1`
	return r.getOne(ctx, query, email)
}

// GetAll retrieves every active user ordered by ID
func (r *userRepository) GetAll(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query users", zap.Error(err))
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// execAffectingOne runs a statement that must touch exactly one user row
func (r *userRepository) execAffectingOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to "+op+" user", zap.Error(err))
		return fmt.Errorf("failed to %s user: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user: %w", models.ErrNotFound)
	}

	return nil
}

// SoftDelete marks an active user as deleted
func (r *userRepository) SoftDelete(ctx context.Context, id int) error {
	query := `UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	return r.execAffectingOne(ctx, "soft delete", query, time.Now().UTC(), id)
}

// Restore clears the deleted mark of a soft-deleted user
func (r *userRepository) Restore(ctx context.Context, id int) error {
	query := `UPDATE users SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL`
	return r.execAffectingOne(ctx, "restore", query, id)
}

// ForceDelete removes a user row; tokens, sessions and acronyms cascade
func (r *userRepository) ForceDelete(ctx context.Context, id int) error {
	query := `DELETE FROM users WHERE id = ?`
	return r.execAffectingOne(ctx, "force delete", query, id)
}

// UpdateRole sets the role of a user. Callers check existence first:
// MySQL reports zero affected rows when the value does not change.
func (r *userRepository) UpdateRole(ctx context.Context, id int, role models.Role) error {
	query := `UPDATE users SET role = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, role, id); err != nil {
		r.logger.Error("failed to update user role", zap.Error(err), zap.Int("user_id", id))
		return fmt.Errorf("failed to update user role: %w", err)
	}

	return nil
}

// UpdatePasswordHash replaces the password hash of a user
func (r *userRepository) UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, passwordHash, id); err != nil {
		r.logger.Error("failed to update password hash", zap.Error(err), zap.Int("user_id", id))
		return fmt.Errorf("failed to update password hash: %w", err)
	}

	return nil
}
