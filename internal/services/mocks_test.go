package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tilapp/til/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// memoryUserStore is an in-memory implementation of the user repository interfaces
type memoryUserStore struct {
	mu         sync.Mutex
	users      map[int]*models.User
	identities map[string]int
	nextID     int
	err        error
}

func newMemoryUserStore(users ...*models.User) *memoryUserStore {
	s := &memoryUserStore{users: make(map[int]*models.User), identities: make(map[string]int)}
	for _, u := range users {
		s.nextID++
		if u.ID == 0 {
			u.ID = s.nextID
		}
		s.users[u.ID] = u
	}
	return s
}

func hashedUser(username, password string, role models.Role) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &models.User{
		Name:         username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
	}
}

func (s *memoryUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return models.ErrConflict
		}
	}
	s.nextID++
	user.ID = s.nextID
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *memoryUserStore) CreateExternal(ctx context.Context, user *models.User, provider, subject string) error {
	key := provider + "/" + subject
	s.mu.Lock()
	if _, ok := s.identities[key]; ok {
		s.mu.Unlock()
		return models.ErrConflict
	}
	s.mu.Unlock()

	if err := s.Create(ctx, user); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[key] = user.ID
	return nil
}

func (s *memoryUserStore) GetByExternalIdentity(ctx context.Context, provider, subject string) (*models.User, error) {
	s.mu.Lock()
	id, ok := s.identities[provider+"/"+subject]
	s.mu.Unlock()
	if !ok {
		return nil, models.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *memoryUserStore) find(match func(u *models.User) bool, withDeleted bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if match(u) && (withDeleted || !u.IsDeleted()) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *memoryUserStore) GetByID(ctx context.Context, id int) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id }, false)
}

func (s *memoryUserStore) GetByIDWithDeleted(ctx context.Context, id int) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id }, true)
}

func (s *memoryUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Username == username }, false)
}

func (s *memoryUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Email == email }, false)
}

func (s *memoryUserStore) GetAll(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var result []models.User
	for _, u := range s.users {
		if !u.IsDeleted() {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *memoryUserStore) SoftDelete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.IsDeleted() {
		return models.ErrNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

func (s *memoryUserStore) Restore(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !u.IsDeleted() {
		return models.ErrNotFound
	}
	u.DeletedAt = nil
	return nil
}

func (s *memoryUserStore) ForceDelete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memoryUserStore) UpdateRole(ctx context.Context, id int, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if u, ok := s.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (s *memoryUserStore) UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// memoryTokenStore resolves tokens through the user store the way the join on users does
type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]models.Token
	users  *memoryUserStore
	nextID int
	err    error
}

func newMemoryTokenStore(users *memoryUserStore) *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]models.Token), users: users}
}

func (s *memoryTokenStore) Create(ctx context.Context, token *models.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.tokens[token.Value]; ok {
		return models.ErrConflict
	}
	s.nextID++
	token.ID = s.nextID
	s.tokens[token.Value] = *token
	return nil
}

func (s *memoryTokenStore) GetUserByValue(ctx context.Context, value string) (*models.User, error) {
	s.mu.Lock()
	token, ok := s.tokens[value]
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrNotFound
	}
	return s.users.GetByID(ctx, token.UserID)
}

func (s *memoryTokenStore) DeleteByUserID(ctx context.Context, userID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for value, token := range s.tokens {
		if token.UserID == userID {
			delete(s.tokens, value)
			deleted++
		}
	}
	return deleted, nil
}

type pivotKey struct {
	acronymID  int
	categoryID int
}

// memoryCategoryStore enforces the unique name and unique pair constraints of the category tables
type memoryCategoryStore struct {
	mu         sync.Mutex
	categories map[int]models.Category
	pivots     map[pivotKey]bool
	nextID     int
	// beforeCreate runs outside the lock before a create is checked for uniqueness
	beforeCreate func(name string)
	attachErr    map[string]error
	createCalls  int
}

func newMemoryCategoryStore(names ...string) *memoryCategoryStore {
	s := &memoryCategoryStore{
		categories: make(map[int]models.Category),
		pivots:     make(map[pivotKey]bool),
		attachErr:  make(map[string]error),
	}
	for _, name := range names {
		s.insert(name)
	}
	return s
}

func (s *memoryCategoryStore) insert(name string) models.Category {
	s.nextID++
	category := models.Category{ID: s.nextID, Name: name}
	s.categories[category.ID] = category
	return category
}

func (s *memoryCategoryStore) Create(ctx context.Context, category *models.Category) error {
	if s.beforeCreate != nil {
		s.beforeCreate(category.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	for _, c := range s.categories {
		if c.Name == category.Name {
			return models.ErrConflict
		}
	}
	*category = s.insert(category.Name)
	return nil
}

func (s *memoryCategoryStore) GetAll(ctx context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *memoryCategoryStore) GetByID(ctx context.Context, id int) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (s *memoryCategoryStore) GetByName(ctx context.Context, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *memoryCategoryStore) GetByAcronymID(ctx context.Context, acronymID int) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Category
	for key := range s.pivots {
		if key.acronymID == acronymID {
			result = append(result, s.categories[key.categoryID])
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *memoryCategoryStore) GetAcronyms(ctx context.Context, categoryID int) ([]models.Acronym, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Acronym
	for key := range s.pivots {
		if key.categoryID == categoryID {
			result = append(result, models.Acronym{ID: key.acronymID})
		}
	}
	return result, nil
}

func (s *memoryCategoryStore) GetAllWithAcronyms(ctx context.Context) ([]models.CategoryWithAcronyms, error) {
	return nil, nil
}

func (s *memoryCategoryStore) GetPivots(ctx context.Context) ([]models.AcronymCategoryPivot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.AcronymCategoryPivot
	for key := range s.pivots {
		result = append(result, models.AcronymCategoryPivot{AcronymID: key.acronymID, CategoryID: key.categoryID})
	}
	return result, nil
}

func (s *memoryCategoryStore) Attach(ctx context.Context, acronymID, categoryID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[categoryID]
	if !ok {
		return models.ErrNotFound
	}
	if err := s.attachErr[c.Name]; err != nil {
		return err
	}
	key := pivotKey{acronymID, categoryID}
	if s.pivots[key] {
		return models.ErrConflict
	}
	s.pivots[key] = true
	return nil
}

func (s *memoryCategoryStore) Detach(ctx context.Context, acronymID, categoryID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pivots, pivotKey{acronymID, categoryID})
	return nil
}

func (s *memoryCategoryStore) attachedNames(acronymID int) []string {
	categories, _ := s.GetByAcronymID(context.Background(), acronymID)
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

func (s *memoryCategoryStore) countByName(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.categories {
		if c.Name == name {
			n++
		}
	}
	return n
}

// recordingCategoryRecorder counts category operations by outcome
type recordingCategoryRecorder struct {
	mu       sync.Mutex
	success  map[string]int
	failures map[string]int
}

func newRecordingCategoryRecorder() *recordingCategoryRecorder {
	return &recordingCategoryRecorder{success: map[string]int{}, failures: map[string]int{}}
}

func (r *recordingCategoryRecorder) ObserveCategoryOp(operation string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failures[operation]++
		return
	}
	r.success[operation]++
}

// memoryAcronymStore is an in-memory implementation of AcronymRepository and UserAcronymReader
type memoryAcronymStore struct {
	mu       sync.Mutex
	acronyms map[int]models.Acronym
	nextID   int
	err      error
}

func newMemoryAcronymStore(acronyms ...models.Acronym) *memoryAcronymStore {
	s := &memoryAcronymStore{acronyms: make(map[int]models.Acronym)}
	for _, a := range acronyms {
		s.nextID++
		a.ID = s.nextID
		s.acronyms[a.ID] = a
	}
	return s
}

func (s *memoryAcronymStore) sorted(less func(a, b models.Acronym) bool) []models.Acronym {
	result := make([]models.Acronym, 0, len(s.acronyms))
	for _, a := range s.acronyms {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result
}

func (s *memoryAcronymStore) Create(ctx context.Context, acronym *models.Acronym) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.nextID++
	acronym.ID = s.nextID
	acronym.CreatedAt = time.Now()
	acronym.UpdatedAt = acronym.CreatedAt
	s.acronyms[acronym.ID] = *acronym
	return nil
}

func (s *memoryAcronymStore) GetByID(ctx context.Context, id int) (*models.Acronym, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	a, ok := s.acronyms[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &a, nil
}

func (s *memoryAcronymStore) GetAll(ctx context.Context, order models.AcronymSort, limit int) ([]models.Acronym, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var result []models.Acronym
	switch order {
	case models.AcronymSortShort:
		result = s.sorted(func(a, b models.Acronym) bool { return a.Short < b.Short })
	case models.AcronymSortRecent:
		result = s.sorted(func(a, b models.Acronym) bool { return a.UpdatedAt.After(b.UpdatedAt) })
	default:
		result = s.sorted(func(a, b models.Acronym) bool { return a.ID < b.ID })
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *memoryAcronymStore) Search(ctx context.Context, term string) ([]models.Acronym, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(a models.Acronym) bool { return a.Short == term || a.Long == term }), nil
}

func (s *memoryAcronymStore) GetByUserID(ctx context.Context, userID int) ([]models.Acronym, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.filter(func(a models.Acronym) bool { return a.UserID == userID }), nil
}

func (s *memoryAcronymStore) filter(match func(a models.Acronym) bool) []models.Acronym {
	var result []models.Acronym
	for _, a := range s.sorted(func(a, b models.Acronym) bool { return a.ID < b.ID }) {
		if match(a) {
			result = append(result, a)
		}
	}
	return result
}

func (s *memoryAcronymStore) Update(ctx context.Context, acronym *models.Acronym) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.acronyms[acronym.ID]; !ok {
		return models.ErrNotFound
	}
	acronym.UpdatedAt = time.Now()
	s.acronyms[acronym.ID] = *acronym
	return nil
}

func (s *memoryAcronymStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.acronyms[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.acronyms, id)
	return nil
}

// passthroughSanitizer returns its input unchanged
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(text string) string { return text }

// mockPokemonRepository is a mock implementation of PokemonRepository
type mockPokemonRepository struct {
	pokemons []models.Pokemon
	err      error
}

func (m *mockPokemonRepository) GetAll(ctx context.Context) ([]models.Pokemon, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.pokemons, nil
}

func (m *mockPokemonRepository) GetByID(ctx context.Context, id int) (*models.Pokemon, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.pokemons {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *mockPokemonRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, p := range m.pokemons {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPokemonRepository) Create(ctx context.Context, pokemon *models.Pokemon) error {
	pokemon.ID = len(m.pokemons) + 1
	m.pokemons = append(m.pokemons, *pokemon)
	return nil
}

// mockPokemonVerifier is a mock implementation of PokemonVerifier
type mockPokemonVerifier struct {
	real  map[string]bool
	err   error
	calls []string
}

func (m *mockPokemonVerifier) Verify(ctx context.Context, name string) (bool, error) {
	m.calls = append(m.calls, name)
	if m.err != nil {
		return false, m.err
	}
	return m.real[name], nil
}

// mockResetTokenRepository is a mock implementation of ResetTokenRepository
type mockResetTokenRepository struct {
	tokens map[string]models.ResetPasswordToken
	nextID int
	err    error
}

func newMockResetTokenRepository() *mockResetTokenRepository {
	return &mockResetTokenRepository{tokens: make(map[string]models.ResetPasswordToken)}
}

func (m *mockResetTokenRepository) Create(ctx context.Context, token *models.ResetPasswordToken) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	token.ID = m.nextID
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	m.tokens[token.Token] = *token
	return nil
}

func (m *mockResetTokenRepository) GetByToken(ctx context.Context, token string) (*models.ResetPasswordToken, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tokens[token]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &t, nil
}

func (m *mockResetTokenRepository) DeleteByID(ctx context.Context, id int) error {
	for value, t := range m.tokens {
		if t.ID == id {
			delete(m.tokens, value)
		}
	}
	return nil
}

// mockResetEmailEnqueuer records enqueued reset e-mails
type mockResetEmailEnqueuer struct {
	payloads []models.PasswordResetEmail
	err      error
}

func (m *mockResetEmailEnqueuer) EnqueuePasswordReset(ctx context.Context, payload models.PasswordResetEmail) error {
	if m.err != nil {
		return m.err
	}
	m.payloads = append(m.payloads, payload)
	return nil
}
