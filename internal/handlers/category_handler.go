package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

// CategoryService is the interface that wraps methods for Category business logic
type CategoryService interface {
	// Method List retrieves every category ordered by name.
	List(ctx context.Context) ([]models.Category, error)
	// Method Get retrieves a category by ID.
	//
	// If category with such ID does not exist, models.ErrNotFound will be returned.
	Get(ctx context.Context, id int) (*models.Category, error)
	// Method Create creates a category.
	//
	// If the name is blank, a models.ValidationError will be returned.
	// If the name is taken, models.ErrConflict will be returned.
	Create(ctx context.Context, name string) (*models.Category, error)
	// Method GetAcronyms retrieves the acronyms attached to a category.
	GetAcronyms(ctx context.Context, id int) ([]models.Acronym, error)
	// Method GetPivots retrieves every acronym-category association.
	GetPivots(ctx context.Context) ([]models.AcronymCategoryPivot, error)
	// Method GetAllWithAcronyms retrieves every category with its acronyms and their owners.
	GetAllWithAcronyms(ctx context.Context) ([]models.CategoryWithAcronyms, error)
}

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	BaseHandler
	service CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(svc CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all category handler routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/pivots", h.GetPivots)
		r.Get("/all", h.GetAll)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/acronyms", h.GetAcronyms)

		r.With(guards.Token).Post("/", h.Create)
	})
}

// List handles GET /api/categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "get categories")
		return
	}
	h.RespondJSON(w, http.StatusOK, categories)
}

// Get handles GET /api/categories/{id}
// @Summary Get category
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.Category
// @Failure 404 {object} map[string]string
// @Router /categories/{id} [get]
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "category")
	if !ok {
		return
	}

	category, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err, "get category")
		return
	}
	h.RespondJSON(w, http.StatusOK, category)
}

// GetAcronyms handles GET /api/categories/{id}/acronyms
// @Summary Get acronyms of a category
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {array} models.Acronym
// @Failure 404 {object} map[string]string
// @Router /categories/{id}/acronyms [get]
func (h *CategoryHandler) GetAcronyms(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "category")
	if !ok {
		return
	}

	acronyms, err := h.service.GetAcronyms(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err, "get category acronyms")
		return
	}
	h.RespondJSON(w, http.StatusOK, acronyms)
}

// GetPivots handles GET /api/categories/pivots
// @Summary List acronym-category associations
// @Tags categories
// @Produce json
// @Success 200 {array} models.AcronymCategoryPivot
// @Router /categories/pivots [get]
func (h *CategoryHandler) GetPivots(w http.ResponseWriter, r *http.Request) {
	pivots, err := h.service.GetPivots(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "get pivots")
		return
	}
	h.RespondJSON(w, http.StatusOK, pivots)
}

// GetAll handles GET /api/categories/all
// @Summary List categories with acronyms
// @Description Every category with its acronyms and their public owners
// @Tags categories
// @Produce json
// @Success 200 {array} models.CategoryWithAcronyms
// @Router /categories/all [get]
func (h *CategoryHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.GetAllWithAcronyms(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "get categories")
		return
	}
	h.RespondJSON(w, http.StatusOK, categories)
}

// Create handles POST /api/categories
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CategoryRequest true "Category"
// @Success 201 {object} models.Category
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /categories [post]
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	category, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		h.RespondServiceError(w, err, "create category")
		return
	}
	h.RespondJSON(w, http.StatusCreated, category)
}
