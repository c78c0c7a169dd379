package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

// UserService is the interface that wraps read methods for public user data
type UserService interface {
	// Method List retrieves the public view of every active user.
	List(ctx context.Context) ([]models.PublicUser, error)
	// Method Get retrieves the public view of a user.
	//
	// If user with such ID does not exist, models.ErrNotFound will be returned.
	Get(ctx context.Context, id int) (*models.PublicUser, error)
	// Method GetAcronyms retrieves the acronyms owned by a user.
	//
	// If user with such ID does not exist, models.ErrNotFound will be returned.
	GetAcronyms(ctx context.Context, id int) ([]models.Acronym, error)
}

// AccountService is the interface that wraps methods for account creation and token issuance
type AccountService interface {
	// Method Register validates the request and creates a standard user.
	//
	// If the request is invalid, a models.ValidationError will be returned.
	// If the username or email is taken, models.ErrConflict will be returned.
	Register(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	// Method IssueToken creates a new API token for the user.
	IssueToken(ctx context.Context, user *models.User) (*models.Token, error)
}

// AdminService is the interface that wraps privileged user management methods
type AdminService interface {
	// Method SoftDeleteUser marks a user as deleted.
	//
	// If no active user with such ID exists, models.ErrNotFound will be returned.
	SoftDeleteUser(ctx context.Context, id int) error
	// Method RestoreUser clears the deleted mark of a user and returns it.
	//
	// If no soft-deleted user with such ID exists, models.ErrNotFound will be returned.
	RestoreUser(ctx context.Context, id int) (*models.User, error)
	// Method ForceDeleteUser removes a user and everything it owns.
	ForceDeleteUser(ctx context.Context, id int) error
	// Method SetRole changes the role of a user.
	//
	// If the role is unknown, a models.ValidationError will be returned.
	SetRole(ctx context.Context, id int, role models.Role) (*models.User, error)
}

// loginRateLimit bounds basic-auth login attempts per client IP
const loginRateLimit = 10

// UserHandler handles HTTP requests for users
type UserHandler struct {
	BaseHandler
	users    UserService
	accounts AccountService
	admin    AdminService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users UserService, accounts AccountService, admin AdminService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{Logger: logger},
		users:       users,
		accounts:    accounts,
		admin:       admin,
	}
}

// RegisterRoutes registers all user handler routes
func (h *UserHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/acronyms", h.GetAcronyms)

		r.With(httprate.LimitByIP(loginRateLimit, time.Minute), guards.Basic).Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(guards.Token)
			r.Post("/", h.Create)

			r.Group(func(r chi.Router) {
				r.Use(guards.Admin)
				r.Delete("/{id}", h.SoftDelete)
				r.Delete("/{id}/force", h.ForceDelete)
				r.Post("/{id}/restore", h.Restore)
				r.Put("/{id}/role", h.SetRole)
			})
		})
	})
}

// List handles GET /api/users
// @Summary List users
// @Description Get the public view of every active user
// @Tags users
// @Produce json
// @Success 200 {array} models.PublicUser
// @Failure 500 {object} map[string]string
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "get users")
		return
	}
	h.RespondJSON(w, http.StatusOK, users)
}

// Get handles GET /api/users/{id}
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.PublicUser
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "user")
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err, "get user")
		return
	}
	h.RespondJSON(w, http.StatusOK, user)
}

// GetAcronyms handles GET /api/users/{id}/acronyms
// @Summary Get acronyms of a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.Acronym
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id}/acronyms [get]
func (h *UserHandler) GetAcronyms(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "user")
	if !ok {
		return
	}

	acronyms, err := h.users.GetAcronyms(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err, "get user acronyms")
		return
	}
	h.RespondJSON(w, http.StatusOK, acronyms)
}

// Create handles POST /api/users
// @Summary Create user
// @Description Create a standard user. Requires a bearer token.
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateUserRequest true "New user"
// @Success 201 {object} models.PublicUser
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.Register(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "create user")
		return
	}
	h.RespondJSON(w, http.StatusCreated, user.Public())
}

// Login handles POST /api/users/login
// @Summary Log in
// @Description Exchange HTTP basic credentials for an API token
// @Tags users
// @Produce json
// @Security BasicAuth
// @Success 201 {object} models.Token
// @Failure 401 {object} map[string]string
// @Failure 429 {string} string
// @Router /users/login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	token, err := h.accounts.IssueToken(r.Context(), user)
	if err != nil {
		h.RespondServiceError(w, err, "issue token")
		return
	}
	h.RespondJSON(w, http.StatusCreated, token)
}

// SoftDelete handles DELETE /api/users/{id}
// @Summary Soft delete user
// @Tags admin
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id} [delete]
func (h *UserHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "user")
	if !ok {
		return
	}

	if err := h.admin.SoftDeleteUser(r.Context(), id); err != nil {
		h.RespondServiceError(w, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForceDelete handles DELETE /api/users/{id}/force
// @Summary Force delete user
// @Description Remove the user together with its tokens, sessions and acronyms
// @Tags admin
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id}/force [delete]
func (h *UserHandler) ForceDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "user")
	if !ok {
		return
	}

	if err := h.admin.ForceDeleteUser(r.Context(), id); err != nil {
		h.RespondServiceError(w, err, "force delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST /api/users/{id}/restore
// @Summary Restore user
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id}/restore [post]
func (h *UserHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "user")
	if !ok {
		return
	}

	user, err := h.admin.RestoreUser(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err, "restore user")
		return
	}
	h.RespondJSON(w, http.StatusOK, user)
}

// SetRole handles PUT /api/users/{id}/role
// @Summary Change user role
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Param request body models.UpdateRoleRequest true "New role"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id}/role [put]
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "user")
	if !ok {
		return
	}

	var req models.UpdateRoleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.admin.SetRole(r.Context(), id, req.Role)
	if err != nil {
		h.RespondServiceError(w, err, "change user role")
		return
	}
	h.RespondJSON(w, http.StatusOK, user)
}
