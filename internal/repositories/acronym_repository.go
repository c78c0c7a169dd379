package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tilapp/til/internal/models"
)

const acronymColumns = "id, short, `long`, user_id, created_at, updated_at"

// acronymRepository implements AcronymRepository
type acronymRepository struct {
	db *sql.DB
}

// NewAcronymRepository creates a new acronym repository
func NewAcronymRepository(db *sql.DB) *acronymRepository {
	return &acronymRepository{
		db: db,
	}
}

func scanAcronym(row rowScanner) (*models.Acronym, error) {
	acronym := &models.Acronym{}
	if err := row.Scan(
		&acronym.ID,
		&acronym.Short,
		&acronym.Long,
		&acronym.UserID,
		&acronym.CreatedAt,
		&acronym.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return acronym, nil
}

func (r *acronymRepository) query(ctx context.Context, query string, args ...any) ([]models.Acronym, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query acronyms: %w", err)
	}
	defer rows.Close()

	acronyms := []models.Acronym{}
	for rows.Next() {
		acronym, err := scanAcronym(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan acronym: %w", err)
		}
		acronyms = append(acronyms, *acronym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating acronyms: %w", err)
	}

	return acronyms, nil
}

// Create inserts a new acronym
func (r *acronymRepository) Create(ctx context.Context, acronym *models.Acronym) error {
	query := "INSERT INTO acronyms (short, `long`, user_id) VALUES (?, ?, ?)"

	result, err := r.db.ExecContext(ctx, query, acronym.Short, acronym.Long, acronym.UserID)
	if err != nil {
		if isMissingReference(err) {
			return fmt.Errorf("acronym owner: %w", models.ErrNotFound)
		}
		return fmt.Errorf("failed to create acronym: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	acronym.ID = int(id)
	return nil
}

// GetByID retrieves an acronym by ID
func (r *acronymRepository) GetByID(ctx context.Context, id int) (*models.Acronym, error) {
	query := "SELECT " + acronymColumns + " FROM acronyms WHERE id = ?"

	acronym, err := scanAcronym(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("acronym: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get acronym: %w", err)
	}

	return acronym, nil
}

// GetAll retrieves acronyms in the requested order.
// A positive limit caps the number of rows.
func (r *acronymRepository) GetAll(ctx context.Context, sort models.AcronymSort, limit int) ([]models.Acronym, error) {
	query := "SELECT " + acronymColumns + " FROM acronyms"

	switch sort {
	case models.AcronymSortShort:
		query += " ORDER BY short ASC, id ASC"
	case models.AcronymSortRecent:
		query += " ORDER BY updated_at DESC, id DESC"
	default:
		query += " ORDER BY id ASC"
	}

	if limit > 0 {
		return r.query(ctx, query+" LIMIT ?", limit)
	}
	return r.query(ctx, query)
}

// Search retrieves acronyms whose short or long form equals the term
func (r *acronymRepository) Search(ctx context.Context, term string) ([]models.Acronym, error) {
	query := "SELECT " + acronymColumns + " FROM acronyms WHERE short = ? OR `long` = ? ORDER BY id"
	return r.query(ctx, query, term, term)
}

// GetByUserID retrieves the acronyms owned by a user
func (r *acronymRepository) GetByUserID(ctx context.Context, userID int) ([]models.Acronym, error) {
	query := "SELECT " + acronymColumns + " FROM acronyms WHERE user_id = ? ORDER BY id"
	return r.query(ctx, query, userID)
}

// Update replaces short, long and owner of an acronym
func (r *acronymRepository) Update(ctx context.Context, acronym *models.Acronym) error {
	query := "UPDATE acronyms SET short = ?, `long` = ?, user_id = ? WHERE id = ?"

	if _, err := r.db.ExecContext(ctx, query, acronym.Short, acronym.Long, acronym.UserID, acronym.ID); err != nil {
		if isMissingReference(err) {
			return fmt.Errorf("acronym owner: %w", models.ErrNotFound)
		}
		return fmt.Errorf("failed to update acronym: %w", err)
	}

	return nil
}

// Delete removes an acronym; its pivot rows cascade
func (r *acronymRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM acronyms WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete acronym: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("acronym: %w", models.ErrNotFound)
	}

	return nil
}
