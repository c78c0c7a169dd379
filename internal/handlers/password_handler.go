package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

// PasswordResetService is the interface that wraps the password reset flow
type PasswordResetService interface {
	// Method RequestReset stores a reset token for the user with the given email and
	// schedules the reset e-mail. An unknown email is not an error.
	RequestReset(ctx context.Context, email string) error
	// Method ResetPassword consumes a reset token and sets the new password.
	//
	// If the token is unknown or expired, or the password is too weak, a models.ValidationError will be returned.
	ResetPassword(ctx context.Context, token, password string) error
}

// PasswordHandler handles the password reset endpoints
type PasswordHandler struct {
	BaseHandler
	service PasswordResetService
}

// NewPasswordHandler creates a new password reset handler
func NewPasswordHandler(svc PasswordResetService, logger *zap.Logger) *PasswordHandler {
	return &PasswordHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers the password reset routes
func (h *PasswordHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)
	})
}

// ForgotPassword handles POST /api/auth/forgot-password
// @Summary Request password reset
// @Description Always accepted; an e-mail is sent only when the address belongs to a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ForgotPasswordRequest true "Email"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /auth/forgot-password [post]
func (h *PasswordHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.RequestReset(r.Context(), req.Email); err != nil {
		h.RespondServiceError(w, err, "request password reset")
		return
	}
	h.RespondJSON(w, http.StatusAccepted, map[string]string{
		"message": "if the address is registered, a reset link has been sent",
	})
}

// ResetPassword handles POST /api/auth/reset-password
// @Summary Reset password
// @Tags auth
// @Accept json
// @Param request body models.ResetPasswordRequest true "Reset token and new password"
// @Success 204
// @Failure 400 {object} map[string]string
// @Router /auth/reset-password [post]
func (h *PasswordHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.RespondServiceError(w, err, "reset password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
