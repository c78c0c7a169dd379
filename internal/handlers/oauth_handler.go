package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tilapp/til/internal/models"
	"github.com/tilapp/til/internal/oauth"
	"go.uber.org/zap"
)

// OAuthProvider is an external identity provider
type OAuthProvider interface {
	// Method Name returns the provider name used in the login path.
	Name() string
	// Method CallbackPath returns the path the provider redirects back to.
	CallbackPath() string
	// Method AuthCodeURL returns the consent page URL carrying the state.
	AuthCodeURL(state string) string
	// Method Authenticate exchanges the authorization code and fetches the identity.
	Authenticate(ctx context.Context, code string) (*oauth.Identity, error)
}

// StateSigner issues and checks the OAuth state parameter
type StateSigner interface {
	Sign(provider string) (string, error)
	Verify(state, provider string) error
}

// ExternalAccounts maps external identities to local users
type ExternalAccounts interface {
	// Method FindOrCreateExternalUser returns the user linked to the provider account, creating it on first login.
	//
	// If the username or email belongs to another local account, models.ErrConflict will be returned.
	FindOrCreateExternalUser(ctx context.Context, identity models.ExternalIdentity) (*models.User, error)
}

// SessionStarter binds a browser session to a user
type SessionStarter interface {
	AuthenticateSession(ctx context.Context, w http.ResponseWriter, user *models.User) error
}

const (
	loginFailedPath   = "/login?error=true"
	loginConflictPath = "/login?error=conflict"
)

// OAuthHandler handles the OAuth login redirects and callbacks
type OAuthHandler struct {
	BaseHandler
	providers []OAuthProvider
	state     StateSigner
	accounts  ExternalAccounts
	sessions  SessionStarter
}

// NewOAuthHandler creates a new OAuth handler; only configured providers should be passed
func NewOAuthHandler(providers []OAuthProvider, state StateSigner, accounts ExternalAccounts, sessions SessionStarter, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		providers:   providers,
		state:       state,
		accounts:    accounts,
		sessions:    sessions,
	}
}

// RegisterRoutes registers the login and callback routes of every provider
func (h *OAuthHandler) RegisterRoutes(r chi.Router) {
	for _, p := range h.providers {
		r.Get("/login-"+p.Name(), h.Login(p))
		r.Get(p.CallbackPath(), h.Callback(p))
	}
}

// Login redirects to the provider's consent page
func (h *OAuthHandler) Login(p OAuthProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := h.state.Sign(p.Name())
		if err != nil {
			h.Logger.Error("failed to sign oauth state", zap.String("provider", p.Name()), zap.Error(err))
			http.Redirect(w, r, loginFailedPath, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, p.AuthCodeURL(state), http.StatusSeeOther)
	}
}

// Callback completes the login: the state is checked, the code exchanged and the
// matching local user, created on first login, gets a browser session
func (h *OAuthHandler) Callback(p OAuthProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.Logger.With(zap.String("provider", p.Name()))
		query := r.URL.Query()

		if reason := query.Get("error"); reason != "" {
			log.Info("oauth login declined", zap.String("reason", reason))
			http.Redirect(w, r, loginFailedPath, http.StatusSeeOther)
			return
		}

		if err := h.state.Verify(query.Get("state"), p.Name()); err != nil {
			log.Warn("invalid oauth state", zap.Error(err))
			http.Redirect(w, r, loginFailedPath, http.StatusSeeOther)
			return
		}

		code := query.Get("code")
		if code == "" {
			http.Redirect(w, r, loginFailedPath, http.StatusSeeOther)
			return
		}

		identity, err := p.Authenticate(r.Context(), code)
		if err != nil {
			log.Error("failed to authenticate with provider", zap.Error(err))
			http.Redirect(w, r, loginFailedPath, http.StatusSeeOther)
			return
		}

		user, err := h.accounts.FindOrCreateExternalUser(r.Context(), models.ExternalIdentity{
			Provider: p.Name(),
			Subject:  identity.Subject,
			Name:     identity.Name,
			Username: identity.Username,
			Email:    identity.Email,
		})
		if errors.Is(err, models.ErrConflict) {
			log.Warn("external account collides with a local user", zap.String("username", identity.Username))
			http.Redirect(w, r, loginConflictPath, http.StatusSeeOther)
			return
		}
		if err != nil {
			log.Error("failed to find or create user", zap.String("username", identity.Username), zap.Error(err))
			http.Redirect(w, r, loginFailedPath, http.StatusSeeOther)
			return
		}

		if err := h.sessions.AuthenticateSession(r.Context(), w, user); err != nil {
			log.Error("failed to start session", zap.Error(err))
			http.Redirect(w, r, loginFailedPath, http.StatusSeeOther)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
