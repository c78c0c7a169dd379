package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

// SessionCookieName is the browser cookie holding the session id
const SessionCookieName = "til_session"

// SessionRepository is the interface that wraps methods for Session table data access
type SessionRepository interface {
	// Method Create inserts a new session.
	//
	// "session" parameter holds the id, owner and expiry of the session.
	//
	// If some error occurs during session creation, the error will be returned.
	Create(ctx context.Context, session *models.Session) error
	// Method GetActiveByID retrieves a session that has not expired.
	//
	// "id" parameter is the value of the session cookie.
	//
	// If no active session with such id exists, models.ErrNotFound will be returned.
	GetActiveByID(ctx context.Context, id string) (*models.Session, error)
	// Method SetCSRFToken stores the CSRF token of a session, nil clears it.
	SetCSRFToken(ctx context.Context, id string, token *string) error
	// Method DeleteByID removes a session.
	DeleteByID(ctx context.Context, id string) error
}

// UserLookup loads live (not soft-deleted) users by id
type UserLookup interface {
	// Method GetByID retrieves an active user by ID.
	//
	// If the user does not exist or was soft-deleted, models.ErrNotFound will be returned.
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// SessionManager binds browser sessions to users
type SessionManager struct {
	sessions SessionRepository
	users    UserLookup
	ttl      time.Duration
	secure   bool
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionManager creates a new session manager
func NewSessionManager(sessions SessionRepository, users UserLookup, ttl time.Duration, secure bool, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		secure:   secure,
		logger:   logger,
		now:      time.Now,
	}
}

// AuthenticateSession creates a session for the user and sets the session cookie
func (m *SessionManager) AuthenticateSession(ctx context.Context, w http.ResponseWriter, user *models.User) error {
	id, err := RandomURLToken()
	if err != nil {
		return err
	}

	session := &models.Session{
		ID:        id,
		UserID:    user.ID,
		ExpiresAt: m.now().Add(m.ttl).UTC(),
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// ResolveSession returns the user bound to the session id.
// Unknown, expired or orphaned sessions yield models.ErrUnauthenticated.
func (m *SessionManager) ResolveSession(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, models.ErrUnauthenticated
	}

	session, err := m.sessions.GetActiveByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Logout destroys the request's session, if any, and clears the cookie
func (m *SessionManager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	id := sessionID(r)
	if id == "" {
		return nil
	}
	if err := m.sessions.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// IssueCSRFToken stores a fresh CSRF token in the request's session and returns it
func (m *SessionManager) IssueCSRFToken(ctx context.Context, r *http.Request) (string, error) {
	id := sessionID(r)
	if id == "" {
		return "", models.ErrUnauthenticated
	}

	token, err := RandomURLToken()
	if err != nil {
		return "", err
	}
	if err := m.sessions.SetCSRFToken(ctx, id, &token); err != nil {
		return "", err
	}

	return token, nil
}

// ConsumeCSRFToken checks the submitted token against the one stored in the session
// and clears it. A missing or different token yields models.ErrForbidden.
func (m *SessionManager) ConsumeCSRFToken(ctx context.Context, r *http.Request, submitted string) error {
	id := sessionID(r)
	if id == "" {
		return models.ErrUnauthenticated
	}

	session, err := m.sessions.GetActiveByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrUnauthenticated
	}
	if err != nil {
		return err
	}

	if session.CSRFToken == nil || submitted == "" ||
		subtle.ConstantTimeCompare([]byte(*session.CSRFToken), []byte(submitted)) != 1 {
		return fmt.Errorf("csrf token mismatch: %w", models.ErrForbidden)
	}

	if err := m.sessions.SetCSRFToken(ctx, id, nil); err != nil {
		m.logger.Warn("failed to clear csrf token", zap.Error(err))
	}
	return nil
}

func sessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
