package handlers

import (
	"net/http"

	"github.com/tilapp/til/internal/auth"
	"github.com/tilapp/til/internal/models"
)

// Guards holds the middlewares that protect API route groups.
// The groups are fixed when routes are registered.
type Guards struct {
	// Basic authenticates with HTTP basic credentials
	Basic func(http.Handler) http.Handler
	// Token authenticates with a bearer token and rejects anonymous requests
	Token func(http.Handler) http.Handler
	// Admin lets only administrators through; it runs after Token
	Admin func(http.Handler) http.Handler
}

// NewGuards builds the API guards of an authentication middleware set
func NewGuards(m *auth.Middleware) Guards {
	return Guards{
		Basic: m.BasicAuth,
		Token: m.TokenAuth,
		Admin: auth.RoleMiddleware(models.RoleAdmin),
	}
}

// currentUser returns the authenticated user of the request, if any
func currentUser(r *http.Request) (*models.User, bool) {
	return auth.UserFromContext(r.Context())
}
