package auth

import (
	"context"
	"sync"

	"github.com/tilapp/til/internal/models"
)

// mockVerifier is a mock implementation of Verifier
type mockVerifier struct {
	user *models.User
	err  error
}

func (m *mockVerifier) Verify(ctx context.Context, username, password string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

// mockTokenResolver is a mock implementation of TokenResolver
type mockTokenResolver struct {
	tokens map[string]*models.User
	err    error
}

func (m *mockTokenResolver) ResolveToken(ctx context.Context, value string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.tokens[value]
	if !ok {
		return nil, models.ErrUnauthenticated
	}
	return user, nil
}

// recordingRecorder collects auth outcomes
type recordingRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingRecorder) ObserveAuth(method, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, method+":"+outcome)
}

// memorySessionRepository is an in-memory SessionRepository
type memorySessionRepository struct {
	mu        sync.Mutex
	sessions  map[string]models.Session
	createErr error
}

func newMemorySessionRepository() *memorySessionRepository {
	return &memorySessionRepository{sessions: map[string]models.Session{}}
}

func (m *memorySessionRepository) Create(ctx context.Context, session *models.Session) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	return nil
}

func (m *memorySessionRepository) GetActiveByID(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &session, nil
}

func (m *memorySessionRepository) SetCSRFToken(ctx context.Context, id string, token *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return models.ErrNotFound
	}
	session.CSRFToken = token
	m.sessions[id] = session
	return nil
}

func (m *memorySessionRepository) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// mockUserLookup is a mock implementation of UserLookup
type mockUserLookup struct {
	users map[int]*models.User
}

func (m *mockUserLookup) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := m.users[id]
	if !ok || user.IsDeleted() {
		return nil, models.ErrNotFound
	}
	return user, nil
}
