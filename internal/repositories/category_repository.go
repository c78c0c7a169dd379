package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tilapp/til/internal/models"
)

// categoryRepository implements CategoryRepository
type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sql.DB) *categoryRepository {
	return &categoryRepository{
		db: db,
	}
}

func (r *categoryRepository) queryCategories(ctx context.Context, query string, args ...any) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) getOne(ctx context.Context, query string, arg any) (*models.Category, error) {
	category := &models.Category{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&category.ID, &category.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// Create inserts a new category. A name that already exists yields models.ErrConflict.
func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	query := `INSERT INTO categories (name) VALUES (?)`

	result, err := r.db.ExecContext(ctx, query, category.Name)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("category %q: %w", category.Name, models.ErrConflict)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	category.ID = int(id)
	return nil
}

// GetAll retrieves every category ordered by ID
func (r *categoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	return r.queryCategories(ctx, `SELECT id, name FROM categories ORDER BY id`)
}

// GetByID retrieves a category by ID
func (r *categoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	return r.getOne(ctx, `SELECT id, name FROM categories WHERE id = ?`, id)
}

// GetByName retrieves a category by exact, case-sensitive name
func (r *categoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	return r.getOne(ctx, `SELECT id, name FROM categories WHERE name = ? LIMIT 1`, name)
}

// GetByAcronymID retrieves the categories attached to an acronym
func (r *categoryRepository) GetByAcronymID(ctx context.Context, acronymID int) ([]models.Category, error) {
	query := `
		SELECT c.id, c.name
		FROM categories c
		INNER JOIN acronym_category_pivot p ON p.category_id = c.id
		WHERE p.acronym_id = ?
		ORDER BY c.id
	`
	return r.queryCategories(ctx, query, acronymID)
}

// GetAcronyms retrieves the acronyms attached to a category
func (r *categoryRepository) GetAcronyms(ctx context.Context, categoryID int) ([]models.Acronym, error) {
	query := "SELECT a.id, a.short, a.`long`, a.user_id, a.created_at, a.updated_at " +
		"FROM acronyms a INNER JOIN acronym_category_pivot p ON p.acronym_id = a.id " +
		"WHERE p.category_id = ? ORDER BY a.id"

	rows, err := r.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category acronyms: %w", err)
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

// GetAllWithAcronyms retrieves every category together with its acronyms and their
// public owners in a single query
func (r *categoryRepository) GetAllWithAcronyms(ctx context.Context) ([]models.CategoryWithAcronyms, error) {
	query := "SELECT c.id, c.name, a.id, a.short, a.`long`, a.user_id, a.created_at, a.updated_at, u.name, u.username " +
		"FROM categories c " +
		"LEFT JOIN acronym_category_pivot p ON p.category_id = c.id " +
		"LEFT JOIN acronyms a ON a.id = p.acronym_id " +
		"LEFT JOIN users u ON u.id = a.user_id " +
		"ORDER BY c.id, a.id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories with acronyms: %w", err)
	}
	defer rows.Close()

	result := []models.CategoryWithAcronyms{}
	for rows.Next() {
		var (
			category  models.Category
			acronymID sql.NullInt64
			short     sql.NullString
			long      sql.NullString
			userID    sql.NullInt64
			createdAt sql.NullTime
			updatedAt sql.NullTime
			userName  sql.NullString
			username  sql.NullString
		)
		if err := rows.Scan(&category.ID, &category.Name, &acronymID, &short, &long, &userID,
			&createdAt, &updatedAt, &userName, &username); err != nil {
			return nil, fmt.Errorf("failed to scan category with acronyms: %w", err)
		}

		if len(result) == 0 || result[len(result)-1].ID != category.ID {
			result = append(result, models.CategoryWithAcronyms{Category: category, Acronyms: []models.AcronymWithUser{}})
		}
		if !acronymID.Valid {
			continue
		}

		current := &result[len(result)-1]
		current.Acronyms = append(current.Acronyms, models.AcronymWithUser{
			Acronym: models.Acronym{
				ID:        int(acronymID.Int64),
				Short:     short.String,
				Long:      long.String,
				UserID:    int(userID.Int64),
				CreatedAt: createdAt.Time,
				UpdatedAt: updatedAt.Time,
			},
			User: models.PublicUser{
				ID:       int(userID.Int64),
				Name:     userName.String,
				Username: username.String,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories with acronyms: %w", err)
	}

	return result, nil
}

// GetPivots retrieves every acronym-category association
func (r *categoryRepository) GetPivots(ctx context.Context) ([]models.AcronymCategoryPivot, error) {
	query := `SELECT id, acronym_id, category_id FROM acronym_category_pivot ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pivots: %w", err)
	}
	defer rows.Close()

	pivots := []models.AcronymCategoryPivot{}
	for rows.Next() {
		var pivot models.AcronymCategoryPivot
		if err := rows.Scan(&pivot.ID, &pivot.AcronymID, &pivot.CategoryID); err != nil {
			return nil, fmt.Errorf("failed to scan pivot: %w", err)
		}
		pivots = append(pivots, pivot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pivots: %w", err)
	}

	return pivots, nil
}

// Attach inserts a pivot row. An existing pair yields models.ErrConflict,
// a missing acronym or category yields models.ErrNotFound.
func (r *categoryRepository) Attach(ctx context.Context, acronymID, categoryID int) error {
	query := `INSERT INTO acronym_category_pivot (acronym_id, category_id) VALUES (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, acronymID, categoryID); err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("pivot: %w", models.ErrConflict)
		}
		if isMissingReference(err) {
			return fmt.Errorf("pivot side: %w", models.ErrNotFound)
		}
		return fmt.Errorf("failed to attach category: %w", err)
	}

	return nil
}

// Detach removes a pivot row; detaching a pair that is not attached is a no-op
func (r *categoryRepository) Detach(ctx context.Context, acronymID, categoryID int) error {
	query := `DELETE FROM acronym_category_pivot WHERE acronym_id = ? AND category_id = ?`

	if _, err := r.db.ExecContext(ctx, query, acronymID, categoryID); err != nil {
		return fmt.Errorf("failed to detach category: %w", err)
	}

	return nil
}
