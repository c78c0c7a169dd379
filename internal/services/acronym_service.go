package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

// AcronymRepository is the interface that wraps methods for Acronym table data access
type AcronymRepository interface {
	// Method Create inserts a new acronym; its ID is set on success.
	Create(ctx context.Context, acronym *models.Acronym) error
	// Method GetByID retrieves an acronym by ID.
	//
	// If acronym with such ID does not exist, models.ErrNotFound will be returned.
	GetByID(ctx context.Context, id int) (*models.Acronym, error)
	// Method GetAll retrieves acronyms in the requested order, at most limit rows when limit > 0.
	GetAll(ctx context.Context, sort models.AcronymSort, limit int) ([]models.Acronym, error)
	// Method Search retrieves acronyms whose short or long form equals the term.
	Search(ctx context.Context, term string) ([]models.Acronym, error)
	// Method Update replaces short, long and owner of an acronym.
	Update(ctx context.Context, acronym *models.Acronym) error
	// Method Delete removes an acronym.
	//
	// If acronym with such ID does not exist, models.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// AcronymCategories is the part of the category service used by acronym operations
type AcronymCategories interface {
	Get(ctx context.Context, id int) (*models.Category, error)
	GetByAcronymID(ctx context.Context, acronymID int) ([]models.Category, error)
	ApplyCategoryPlan(ctx context.Context, acronymID int, plan models.CategoryPlan) error
	AttachByID(ctx context.Context, acronymID, categoryID int) error
	Detach(ctx context.Context, acronymID, categoryID int) error
}

// AcronymOwnerReader loads the owners of acronyms
type AcronymOwnerReader interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// Sanitizer strips markup from user input
type Sanitizer interface {
	Sanitize(text string) string
}

// acronymService implements acronym management
type acronymService struct {
	repo       AcronymRepository
	categories AcronymCategories
	users      AcronymOwnerReader
	sanitizer  Sanitizer
	logger     *zap.Logger
}

// NewAcronymService creates a new acronym service
func NewAcronymService(
	repo AcronymRepository,
	categories AcronymCategories,
	users AcronymOwnerReader,
	sanitizer Sanitizer,
	logger *zap.Logger,
) *acronymService {
	return &acronymService{
		repo:       repo,
		categories: categories,
		users:      users,
		sanitizer:  sanitizer,
		logger:     logger,
	}
}

// List returns acronyms in the requested order
func (s *acronymService) List(ctx context.Context, sort models.AcronymSort) ([]models.Acronym, error) {
	return s.repo.GetAll(ctx, sort, 0)
}

// First returns the first acronym in the requested order
func (s *acronymService) First(ctx context.Context, sort models.AcronymSort) (*models.Acronym, error) {
	acronyms, err := s.repo.GetAll(ctx, sort, 1)
	if err != nil {
		return nil, err
	}
	if len(acronyms) == 0 {
		return nil, fmt.Errorf("acronym: %w", models.ErrNotFound)
	}
	return &acronyms[0], nil
}

// Get returns an acronym by ID
func (s *acronymService) Get(ctx context.Context, id int) (*models.Acronym, error) {
	return s.repo.GetByID(ctx, id)
}

// Search returns acronyms whose short or long form equals term
func (s *acronymService) Search(ctx context.Context, term string) ([]models.Acronym, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, models.NewValidationError("term is required")
	}
	return s.repo.Search(ctx, term)
}

func (s *acronymService) cleanRequest(req *models.AcronymRequest) error {
	req.Short = s.sanitizer.Sanitize(req.Short)
	req.Long = s.sanitizer.Sanitize(req.Long)
	if err := validateAcronym(req.Short, req.Long); err != nil {
		return err
	}
	if req.Categories == nil {
		return nil
	}
	// blank names are dropped by Reconcile, so only the length is checked here
	for _, name := range *req.Categories {
		if err := validateTextLength("category name", strings.TrimSpace(name)); err != nil {
			return err
		}
	}
	return nil
}

// Create creates an acronym owned by owner and attaches the requested categories
func (s *acronymService) Create(ctx context.Context, owner *models.User, req *models.AcronymRequest) (*models.Acronym, error) {
	if err := s.cleanRequest(req); err != nil {
		return nil, err
	}

	acronym := &models.Acronym{
		Short:  req.Short,
		Long:   req.Long,
		UserID: owner.ID,
	}
	if err := s.repo.Create(ctx, acronym); err != nil {
		return nil, err
	}

	if req.Categories != nil {
		plan := Reconcile(nil, *req.Categories)
		if err := s.categories.ApplyCategoryPlan(ctx, acronym.ID, plan); err != nil {
			return nil, fmt.Errorf("acronym %d created, categories failed: %w", acronym.ID, err)
		}
	}

	return s.repo.GetByID(ctx, acronym.ID)
}

// Update replaces an acronym's content, makes editor its owner and, when the request
// carries a category list, reconciles the attached categories with it
func (s *acronymService) Update(ctx context.Context, editor *models.User, id int, req *models.AcronymRequest) (*models.Acronym, error) {
	acronym, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cleanRequest(req); err != nil {
		return nil, err
	}

	acronym.Short = req.Short
	acronym.Long = req.Long
	acronym.UserID = editor.ID
	if err := s.repo.Update(ctx, acronym); err != nil {
		return nil, err
	}

	if req.Categories != nil {
		existing, err := s.categories.GetByAcronymID(ctx, id)
		if err != nil {
			return nil, err
		}
		plan := Reconcile(existing, *req.Categories)
		s.logger.Debug("reconciling acronym categories",
			zap.Int("acronym_id", id),
			zap.Strings("attach", plan.ToAttach),
			zap.Int("detach", len(plan.ToDetach)),
		)
		if err := s.categories.ApplyCategoryPlan(ctx, id, plan); err != nil {
			return nil, err
		}
	}

	return s.repo.GetByID(ctx, id)
}

// Delete removes an acronym
func (s *acronymService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// GetUser returns the public owner of an acronym
func (s *acronymService) GetUser(ctx context.Context, id int) (*models.PublicUser, error) {
	acronym, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, acronym.UserID)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// GetCategories returns the categories attached to an acronym
func (s *acronymService) GetCategories(ctx context.Context, id int) ([]models.Category, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.categories.GetByAcronymID(ctx, id)
}

// AttachCategory attaches an existing category to an acronym
func (s *acronymService) AttachCategory(ctx context.Context, acronymID, categoryID int) error {
	return s.categories.AttachByID(ctx, acronymID, categoryID)
}

// DetachCategory detaches a category from an acronym; both must exist
func (s *acronymService) DetachCategory(ctx context.Context, acronymID, categoryID int) error {
	if _, err := s.repo.GetByID(ctx, acronymID); err != nil {
		return err
	}
	if _, err := s.categories.Get(ctx, categoryID); err != nil {
		return err
	}
	return s.categories.Detach(ctx, acronymID, categoryID)
}
