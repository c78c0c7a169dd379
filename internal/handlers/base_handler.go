// Package handlers contains the HTTP handlers of the JSON API, the web pages and the chat.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

// BaseHandler carries the helpers shared by every handler
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RespondServiceError maps an error returned by a service to a response.
// Unknown errors are logged with the action and answered with 500.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error, action string) {
	status, message := classifyError(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("failed to "+action, zap.Error(err))
		message = "failed to " + action
	}
	h.RespondError(w, status, message)
}

// classifyError returns the status code and client message of an error
func classifyError(err error) (int, string) {
	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "already exists"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "insufficient permissions"
	case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "authentication required"
	default:
		return http.StatusInternalServerError, ""
	}
}

// decodeJSON decodes the request body into dst
func (h *BaseHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// urlID parses a positive integer URL parameter, answering 400 when it is malformed
func (h *BaseHandler) urlID(w http.ResponseWriter, r *http.Request, param, what string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid "+what+" ID")
		return 0, false
	}
	return id, true
}
