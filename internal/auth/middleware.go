package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

// Verifier checks a username/password pair
type Verifier interface {
	// Method Verify returns the user owning the credentials.
	//
	// If the username is unknown, models.ErrNotFound will be returned.
	// If the password does not match, models.ErrInvalidCredentials will be returned.
	Verify(ctx context.Context, username, password string) (*models.User, error)
}

// TokenResolver maps a bearer token to its owner
type TokenResolver interface {
	// Method ResolveToken returns the live owner of the token.
	//
	// If the token is unknown or its owner was soft-deleted, models.ErrUnauthenticated will be returned.
	ResolveToken(ctx context.Context, value string) (*models.User, error)
}

// SessionResolver maps a session id to its owner
type SessionResolver interface {
	// Method ResolveSession returns the user bound to the session id.
	//
	// If the session is unknown or expired, models.ErrUnauthenticated will be returned.
	ResolveSession(ctx context.Context, id string) (*models.User, error)
}

// Recorder receives the outcome of every authentication attempt
type Recorder interface {
	ObserveAuth(method, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAuth(string, string) {}

// Authentication methods and outcomes reported to the Recorder
const (
	MethodBasic   = "basic"
	MethodToken   = "token"
	MethodSession = "session"

	OutcomeSuccess = "success"
	OutcomeMissing = "missing"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

const (
	authRequiredBody = `{"error":"authentication required"}`
	forbiddenBody    = `{"error":"insufficient permissions"}`
)

// Middleware builds the authentication middleware chain
type Middleware struct {
	verifier Verifier
	tokens   TokenResolver
	sessions SessionResolver
	recorder Recorder
	logger   *zap.Logger
}

// NewMiddleware creates the middleware set; recorder may be nil
func NewMiddleware(verifier Verifier, tokens TokenResolver, sessions SessionResolver, recorder Recorder, logger *zap.Logger) *Middleware {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Middleware{
		verifier: verifier,
		tokens:   tokens,
		sessions: sessions,
		recorder: recorder,
		logger:   logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// BasicAuth authenticates the request with HTTP basic credentials
func (m *Middleware) BasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			m.recorder.ObserveAuth(MethodBasic, OutcomeMissing)
			w.Header().Set("WWW-Authenticate", `Basic realm="til"`)
			writeJSON(w, http.StatusUnauthorized, authRequiredBody)
			return
		}

		user, err := m.verifier.Verify(r.Context(), username, password)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) && !errors.Is(err, models.ErrInvalidCredentials) {
				m.recorder.ObserveAuth(MethodBasic, OutcomeError)
				m.logger.Error("failed to verify credentials", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, `{"error":"internal server error"}`)
				return
			}
			m.recorder.ObserveAuth(MethodBasic, OutcomeFailure)
			w.Header().Set("WWW-Authenticate", `Basic realm="til"`)
			writeJSON(w, http.StatusUnauthorized, authRequiredBody)
			return
		}

		m.recorder.ObserveAuth(MethodBasic, OutcomeSuccess)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// TokenAuth authenticates the request with a bearer token and rejects it otherwise
func (m *Middleware) TokenAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			m.recorder.ObserveAuth(MethodToken, OutcomeMissing)
			writeJSON(w, http.StatusUnauthorized, authRequiredBody)
			return
		}

		user, err := m.tokens.ResolveToken(r.Context(), token)
		if err != nil {
			if !errors.Is(err, models.ErrUnauthenticated) {
				m.recorder.ObserveAuth(MethodToken, OutcomeError)
				m.logger.Error("failed to resolve token", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, `{"error":"internal server error"}`)
				return
			}
			m.recorder.ObserveAuth(MethodToken, OutcomeFailure)
			writeJSON(w, http.StatusUnauthorized, authRequiredBody)
			return
		}

		m.recorder.ObserveAuth(MethodToken, OutcomeSuccess)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// SessionAuthenticator loads the user of the session cookie, if any. It never rejects.
func (m *Middleware) SessionAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := sessionID(r)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.sessions.ResolveSession(r.Context(), id)
		if err != nil {
			if errors.Is(err, models.ErrUnauthenticated) {
				m.recorder.ObserveAuth(MethodSession, OutcomeFailure)
			} else {
				m.recorder.ObserveAuth(MethodSession, OutcomeError)
				m.logger.Error("failed to resolve session", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		m.recorder.ObserveAuth(MethodSession, OutcomeSuccess)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RedirectUnauthenticated sends requests without a user to the given path with 303 See Other
func RedirectUnauthenticated(path string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFromContext(r.Context()); !ok {
				http.Redirect(w, r, path, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RoleMiddleware lets only users holding exactly the given role through.
// It must run after an authenticating middleware.
func RoleMiddleware(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := UserFromContext(r.Context())
			if err := RequireRole(user, role); err != nil {
				if errors.Is(err, models.ErrUnauthenticated) {
					writeJSON(w, http.StatusUnauthorized, authRequiredBody)
					return
				}
				writeJSON(w, http.StatusForbidden, forbiddenBody)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
