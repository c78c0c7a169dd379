package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CategoryRepository is the interface that wraps methods for Category and pivot table data access
type CategoryRepository interface {
	// Method Create inserts a new category; its ID is set on success.
	//
	// If a category with the same name exists, models.ErrConflict will be returned.
	Create(ctx context.Context, category *models.Category) error
	// Method GetAll retrieves every category.
	GetAll(ctx context.Context) ([]models.Category, error)
	// Method GetByID retrieves a category by ID.
	//
	// If category with such ID does not exist, models.ErrNotFound will be returned.
	GetByID(ctx context.Context, id int) (*models.Category, error)
	// Method GetByName retrieves a category by exact name.
	//
	// If category with such name does not exist, models.ErrNotFound will be returned.
	GetByName(ctx context.Context, name string) (*models.Category, error)
	// Method GetByAcronymID retrieves the categories attached to an acronym.
	GetByAcronymID(ctx context.Context, acronymID int) ([]models.Category, error)
	// Method GetAcronyms retrieves the acronyms attached to a category.
	GetAcronyms(ctx context.Context, categoryID int) ([]models.Acronym, error)
	// Method GetAllWithAcronyms retrieves every category with its acronyms and their owners.
	GetAllWithAcronyms(ctx context.Context) ([]models.CategoryWithAcronyms, error)
	// Method GetPivots retrieves every acronym-category association.
	GetPivots(ctx context.Context) ([]models.AcronymCategoryPivot, error)
	// Method Attach inserts a pivot row.
	//
	// If the pair is already attached, models.ErrConflict will be returned.
	// If the acronym or the category does not exist, models.ErrNotFound will be returned.
	Attach(ctx context.Context, acronymID, categoryID int) error
	// Method Detach removes a pivot row; a missing pair is not an error.
	Detach(ctx context.Context, acronymID, categoryID int) error
}

// CategoryRecorder receives the outcome of every attach and detach
type CategoryRecorder interface {
	ObserveCategoryOp(operation string, err error)
}

type nopCategoryRecorder struct{}

func (nopCategoryRecorder) ObserveCategoryOp(string, error) {}

// categoryService implements category management and plan application
type categoryService struct {
	repo     CategoryRepository
	recorder CategoryRecorder
	logger   *zap.Logger
}

// NewCategoryService creates a new category service; recorder may be nil
func NewCategoryService(repo CategoryRepository, recorder CategoryRecorder, logger *zap.Logger) *categoryService {
	if recorder == nil {
		recorder = nopCategoryRecorder{}
	}
	return &categoryService{
		repo:     repo,
		recorder: recorder,
		logger:   logger,
	}
}

// List returns every category
func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.repo.GetAll(ctx)
}

// Get returns a category by ID
func (s *categoryService) Get(ctx context.Context, id int) (*models.Category, error) {
	return s.repo.GetByID(ctx, id)
}

// Create creates a category with a new name
func (s *categoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	category := &models.Category{Name: name}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// GetAcronyms returns the acronyms of an existing category
func (s *categoryService) GetAcronyms(ctx context.Context, id int) ([]models.Acronym, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetAcronyms(ctx, id)
}

// GetPivots returns every acronym-category association
func (s *categoryService) GetPivots(ctx context.Context) ([]models.AcronymCategoryPivot, error) {
	return s.repo.GetPivots(ctx)
}

// GetAllWithAcronyms returns every category with its acronyms
func (s *categoryService) GetAllWithAcronyms(ctx context.Context) ([]models.CategoryWithAcronyms, error) {
	return s.repo.GetAllWithAcronyms(ctx)
}

// GetByAcronymID returns the categories currently attached to an acronym
func (s *categoryService) GetByAcronymID(ctx context.Context, acronymID int) ([]models.Category, error) {
	return s.repo.GetByAcronymID(ctx, acronymID)
}

// FindOrCreate returns the category with exactly this name, creating it when missing.
// Losing a creation race to a concurrent request re-reads the winner's row.
func (s *categoryService) FindOrCreate(ctx context.Context, name string) (*models.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	category, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	category = &models.Category{Name: name}
	err = s.repo.Create(ctx, category)
	if errors.Is(err, models.ErrConflict) {
		s.logger.Debug("category created concurrently, re-reading", zap.String("name", name))
		return s.repo.GetByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	return category, nil
}

// AttachByName attaches the category with the given name to an acronym,
// creating the category first when needed. Already attached pairs are left as they are.
func (s *categoryService) AttachByName(ctx context.Context, acronymID int, name string) error {
	category, err := s.FindOrCreate(ctx, name)
	if err != nil {
		return fmt.Errorf("category %q: %w", name, err)
	}
	return s.AttachByID(ctx, acronymID, category.ID)
}

// AttachByID attaches an existing category to an acronym
func (s *categoryService) AttachByID(ctx context.Context, acronymID, categoryID int) error {
	err := s.repo.Attach(ctx, acronymID, categoryID)
	if errors.Is(err, models.ErrConflict) {
		return nil
	}
	return err
}

// Detach removes a category from an acronym
func (s *categoryService) Detach(ctx context.Context, acronymID, categoryID int) error {
	return s.repo.Detach(ctx, acronymID, categoryID)
}

// ApplyCategoryPlan runs every attach and detach of the plan concurrently, waits for
// all of them and returns the first error. Operations that succeeded before a failure
// are not rolled back.
func (s *categoryService) ApplyCategoryPlan(ctx context.Context, acronymID int, plan models.CategoryPlan) error {
	if plan.Empty() {
		return nil
	}

	// a plain Group: one failing operation must not cancel its siblings
	var g errgroup.Group

	for _, name := range plan.ToAttach {
		g.Go(func() error {
			err := s.AttachByName(ctx, acronymID, name)
			s.recorder.ObserveCategoryOp("attach", err)
			return err
		})
	}

	for _, category := range plan.ToDetach {
		g.Go(func() error {
			err := s.Detach(ctx, acronymID, category.ID)
			s.recorder.ObserveCategoryOp("detach", err)
			if err != nil {
				return fmt.Errorf("category %q: %w", category.Name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Warn("category plan partially applied",
			zap.Int("acronym_id", acronymID),
			zap.Strings("to_attach", plan.ToAttach),
			zap.Int("to_detach", len(plan.ToDetach)),
			zap.Error(err),
		)
		return err
	}

	return nil
}
