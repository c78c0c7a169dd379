package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

// AcronymService is the interface that wraps methods for Acronym business logic
type AcronymService interface {
	// Method List retrieves every acronym in the requested order.
	List(ctx context.Context, sort models.AcronymSort) ([]models.Acronym, error)
	// Method First retrieves the first acronym in the requested order.
	//
	// If there are no acronyms, models.ErrNotFound will be returned.
	First(ctx context.Context, sort models.AcronymSort) (*models.Acronym, error)
	// Method Get retrieves an acronym by ID.
	//
	// If acronym with such ID does not exist, models.ErrNotFound will be returned.
	Get(ctx context.Context, id int) (*models.Acronym, error)
	// Method Search retrieves acronyms whose short or long form equals the term.
	//
	// If the term is blank, a models.ValidationError will be returned.
	Search(ctx context.Context, term string) ([]models.Acronym, error)
	// Method Create creates an acronym owned by "owner" and attaches the requested categories.
	//
	// If the request is invalid, a models.ValidationError will be returned.
	Create(ctx context.Context, owner *models.User, req *models.AcronymRequest) (*models.Acronym, error)
	// Method Update replaces an acronym; the editor becomes its owner.
	// When req.Categories is set, the attached categories are reconciled against it.
	Update(ctx context.Context, editor *models.User, id int, req *models.AcronymRequest) (*models.Acronym, error)
	// Method Delete removes an acronym.
	Delete(ctx context.Context, id int) error
	// Method GetUser retrieves the public owner of an acronym.
	GetUser(ctx context.Context, id int) (*models.PublicUser, error)
	// Method GetCategories retrieves the categories attached to an acronym.
	GetCategories(ctx context.Context, id int) ([]models.Category, error)
	// Method AttachCategory attaches an existing category; attaching twice is not an error.
	AttachCategory(ctx context.Context, acronymID, categoryID int) error
	// Method DetachCategory detaches a category from an acronym.
	DetachCategory(ctx context.Context, acronymID, categoryID int) error
}

// AcronymHandler handles HTTP requests for acronyms
type AcronymHandler struct {
	BaseHandler
	service AcronymService
}

// NewAcronymHandler creates a new acronym handler
func NewAcronymHandler(svc AcronymService, logger *zap.Logger) *AcronymHandler {
	return &AcronymHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all acronym handler routes
func (h *AcronymHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/acronyms", func(r chi.Router) {
		r.Get("/", h.list(models.AcronymSortNone))
		r.Get("/first", h.first(models.AcronymSortNone))
		r.Get("/search", h.Search)
		r.Get("/sorted", h.list(models.AcronymSortShort))
		r.Get("/sorted/first", h.first(models.AcronymSortShort))
		r.Get("/sorted/recent", h.list(models.AcronymSortRecent))
		r.Get("/sorted/recent/first", h.first(models.AcronymSortRecent))
		r.Get("/{id}", h.Get)
		r.Get("/{id}/user", h.GetUser)
		r.Get("/{id}/categories", h.GetCategories)

		r.Group(func(r chi.Router) {
			r.Use(guards.Token)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Post("/{id}/categories/{categoryID}", h.AttachCategory)
			r.Delete("/{id}/categories/{categoryID}", h.DetachCategory)
		})
	})
}

// list handles GET /api/acronyms, /api/acronyms/sorted and /api/acronyms/sorted/recent
// @Summary List acronyms
// @Description "sorted" orders by short ascending, "sorted/recent" by last update, newest first
// @Tags acronyms
// @Produce json
// @Success 200 {array} models.Acronym
// @Failure 500 {object} map[string]string
// @Router /acronyms [get]
// @Router /acronyms/sorted [get]
// @Router /acronyms/sorted/recent [get]
func (h *AcronymHandler) list(sort models.AcronymSort) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acronyms, err := h.service.List(r.Context(), sort)
		if err != nil {
			h.RespondServiceError(w, err, "get acronyms")
			return
		}
		h.RespondJSON(w, http.StatusOK, acronyms)
	}
}

// first handles GET /api/acronyms/first and its sorted variants
// @Summary Get first acronym
// @Tags acronyms
// @Produce json
// @Success 200 {object} models.Acronym
// @Failure 404 {object} map[string]string
// @Router /acronyms/first [get]
// @Router /acronyms/sorted/first [get]
// @Router /acronyms/sorted/recent/first [get]
func (h *AcronymHandler) first(sort models.AcronymSort) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acronym, err := h.service.First(r.Context(), sort)
		if err != nil {
			h.RespondServiceError(w, err, "get acronym")
			return
		}
		h.RespondJSON(w, http.StatusOK, acronym)
	}
}

// Search handles GET /api/acronyms/search
// @Summary Search acronyms
// @Description Find acronyms whose short or long form equals the term
// @Tags acronyms
// @Produce json
// @Param term query string true "Exact short or long form"
// @Success 200 {array} models.Acronym
// @Failure 400 {object} map[string]string
// @Router /acronyms/search [get]
func (h *AcronymHandler) Search(w http.ResponseWriter, r *http.Request) {
	acronyms, err := h.service.Search(r.Context(), r.URL.Query().Get("term"))
	if err != nil {
		h.RespondServiceError(w, err, "search acronyms")
		return
	}
	h.RespondJSON(w, http.StatusOK, acronyms)
}

// Get handles GET /api/acronyms/{id}
// @Summary Get acronym
// @Tags acronyms
// @Produce json
// @Param id path int true "Acronym ID"
// @Success 200 {object} models.Acronym
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /acronyms/{id} [get]
func (h *AcronymHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "acronym")
	if !ok {
		return
	}

	acronym, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err, "get acronym")
		return
	}
	h.RespondJSON(w, http.StatusOK, acronym)
}

// GetUser handles GET /api/acronyms/{id}/user
// @Summary Get acronym owner
// @Tags acronyms
// @Produce json
// @Param id path int true "Acronym ID"
// @Success 200 {object} models.PublicUser
// @Failure 404 {object} map[string]string
// @Router /acronyms/{id}/user [get]
func (h *AcronymHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "acronym")
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err, "get acronym owner")
		return
	}
	h.RespondJSON(w, http.StatusOK, user)
}

// GetCategories handles GET /api/acronyms/{id}/categories
// @Summary Get acronym categories
// @Tags acronyms
// @Produce json
// @Param id path int true "Acronym ID"
// @Success 200 {array} models.Category
// @Failure 404 {object} map[string]string
// @Router /acronyms/{id}/categories [get]
func (h *AcronymHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "acronym")
	if !ok {
		return
	}

	categories, err := h.service.GetCategories(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err, "get acronym categories")
		return
	}
	h.RespondJSON(w, http.StatusOK, categories)
}

// Create handles POST /api/acronyms
// @Summary Create acronym
// @Description Create an acronym owned by the caller. Listed categories are created when missing.
// @Tags acronyms
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.AcronymRequest true "Acronym"
// @Success 201 {object} models.Acronym
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /acronyms [post]
func (h *AcronymHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.AcronymRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	acronym, err := h.service.Create(r.Context(), user, &req)
	if err != nil {
		h.RespondServiceError(w, err, "create acronym")
		return
	}
	h.RespondJSON(w, http.StatusCreated, acronym)
}

// Update handles PUT /api/acronyms/{id}
// @Summary Update acronym
// @Description Replace short and long forms; the caller becomes the owner. When categories are sent they replace the attached ones.
// @Tags acronyms
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Acronym ID"
// @Param request body models.AcronymRequest true "Acronym"
// @Success 200 {object} models.Acronym
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /acronyms/{id} [put]
func (h *AcronymHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := h.urlID(w, r, "id", "acronym")
	if !ok {
		return
	}

	var req models.AcronymRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	acronym, err := h.service.Update(r.Context(), user, id, &req)
	if err != nil {
		h.RespondServiceError(w, err, "update acronym")
		return
	}
	h.RespondJSON(w, http.StatusOK, acronym)
}

// Delete handles DELETE /api/acronyms/{id}
// @Summary Delete acronym
// @Tags acronyms
// @Security ApiKeyAuth
// @Param id path int true "Acronym ID"
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /acronyms/{id} [delete]
func (h *AcronymHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "acronym")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.RespondServiceError(w, err, "delete acronym")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AttachCategory handles POST /api/acronyms/{id}/categories/{categoryID}
// @Summary Attach category
// @Tags acronyms
// @Security ApiKeyAuth
// @Param id path int true "Acronym ID"
// @Param categoryID path int true "Category ID"
// @Success 201
// @Failure 404 {object} map[string]string
// @Router /acronyms/{id}/categories/{categoryID} [post]
func (h *AcronymHandler) AttachCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "acronym")
	if !ok {
		return
	}
	categoryID, ok := h.urlID(w, r, "categoryID", "category")
	if !ok {
		return
	}

	if err := h.service.AttachCategory(r.Context(), id, categoryID); err != nil {
		h.RespondServiceError(w, err, "attach category")
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// DetachCategory handles DELETE /api/acronyms/{id}/categories/{categoryID}
// @Summary Detach category
// @Tags acronyms
// @Security ApiKeyAuth
// @Param id path int true "Acronym ID"
// @Param categoryID path int true "Category ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /acronyms/{id}/categories/{categoryID} [delete]
func (h *AcronymHandler) DetachCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "acronym")
	if !ok {
		return
	}
	categoryID, ok := h.urlID(w, r, "categoryID", "category")
	if !ok {
		return
	}

	if err := h.service.DetachCategory(r.Context(), id, categoryID); err != nil {
		h.RespondServiceError(w, err, "detach category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
