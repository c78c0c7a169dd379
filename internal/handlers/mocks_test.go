package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tilapp/til/internal/auth"
	"github.com/tilapp/til/internal/models"
	"github.com/tilapp/til/internal/oauth"
	"github.com/tilapp/til/internal/view"
)

var (
	adminUser    = &models.User{ID: 1, Name: "Admin", Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin}
	standardUser = &models.User{ID: 2, Name: "Tim", Username: "tim", Email: "tim@example.com", PasswordHash: "hash", Role: models.RoleStandard}
)

// testGuards authenticates every request carrying an Authorization header as user
func testGuards(user *models.User) Guards {
	inject := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"authentication required"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
	return Guards{Basic: inject, Token: inject, Admin: auth.RoleMiddleware(models.RoleAdmin)}
}

var requireLoginForTest = auth.RedirectUnauthenticated("/login")

func newTestRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	renderer, err := view.NewRenderer()
	require.NoError(t, err)
	return renderer
}

// withUser runs the handler as if the session authenticator had loaded user
func withUser(user *models.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user != nil {
				r = r.WithContext(auth.WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

type mockUserService struct {
	listFn        func(ctx context.Context) ([]models.PublicUser, error)
	getFn         func(ctx context.Context, id int) (*models.PublicUser, error)
	getAcronymsFn func(ctx context.Context, id int) ([]models.Acronym, error)
}

func (m *mockUserService) List(ctx context.Context) ([]models.PublicUser, error) {
	if m.listFn == nil {
		return []models.PublicUser{}, nil
	}
	return m.listFn(ctx)
}

func (m *mockUserService) Get(ctx context.Context, id int) (*models.PublicUser, error) {
	if m.getFn == nil {
		return nil, models.ErrNotFound
	}
	return m.getFn(ctx, id)
}

func (m *mockUserService) GetAcronyms(ctx context.Context, id int) ([]models.Acronym, error) {
	if m.getAcronymsFn == nil {
		return []models.Acronym{}, nil
	}
	return m.getAcronymsFn(ctx, id)
}

type mockAccountService struct {
	registerFn   func(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	issueTokenFn func(ctx context.Context, user *models.User) (*models.Token, error)
	verifyFn     func(ctx context.Context, username, password string) (*models.User, error)
	externalFn   func(ctx context.Context, identity models.ExternalIdentity) (*models.User, error)
}

func (m *mockAccountService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	return m.registerFn(ctx, req)
}

func (m *mockAccountService) IssueToken(ctx context.Context, user *models.User) (*models.Token, error) {
	return m.issueTokenFn(ctx, user)
}

func (m *mockAccountService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	return m.verifyFn(ctx, username, password)
}

func (m *mockAccountService) FindOrCreateExternalUser(ctx context.Context, identity models.ExternalIdentity) (*models.User, error) {
	return m.externalFn(ctx, identity)
}

type mockAdminService struct {
	deleted      []int
	forceDeleted []int
	restoreFn    func(ctx context.Context, id int) (*models.User, error)
	setRoleFn    func(ctx context.Context, id int, role models.Role) (*models.User, error)
	deleteErr    error
}

func (m *mockAdminService) SoftDeleteUser(ctx context.Context, id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockAdminService) RestoreUser(ctx context.Context, id int) (*models.User, error) {
	return m.restoreFn(ctx, id)
}

func (m *mockAdminService) ForceDeleteUser(ctx context.Context, id int) error {
	m.forceDeleted = append(m.forceDeleted, id)
	return nil
}

func (m *mockAdminService) SetRole(ctx context.Context, id int, role models.Role) (*models.User, error) {
	return m.setRoleFn(ctx, id, role)
}

type mockAcronymService struct {
	listFn          func(ctx context.Context, sort models.AcronymSort) ([]models.Acronym, error)
	firstFn         func(ctx context.Context, sort models.AcronymSort) (*models.Acronym, error)
	getFn           func(ctx context.Context, id int) (*models.Acronym, error)
	searchFn        func(ctx context.Context, term string) ([]models.Acronym, error)
	createFn        func(ctx context.Context, owner *models.User, req *models.AcronymRequest) (*models.Acronym, error)
	updateFn        func(ctx context.Context, editor *models.User, id int, req *models.AcronymRequest) (*models.Acronym, error)
	getUserFn       func(ctx context.Context, id int) (*models.PublicUser, error)
	getCategoriesFn func(ctx context.Context, id int) ([]models.Category, error)
	attachFn        func(ctx context.Context, acronymID, categoryID int) error
	detachFn        func(ctx context.Context, acronymID, categoryID int) error
	deleted         []int
}

func (m *mockAcronymService) List(ctx context.Context, sort models.AcronymSort) ([]models.Acronym, error) {
	if m.listFn == nil {
		return []models.Acronym{}, nil
	}
	return m.listFn(ctx, sort)
}

func (m *mockAcronymService) First(ctx context.Context, sort models.AcronymSort) (*models.Acronym, error) {
	return m.firstFn(ctx, sort)
}

func (m *mockAcronymService) Get(ctx context.Context, id int) (*models.Acronym, error) {
	if m.getFn == nil {
		return nil, models.ErrNotFound
	}
	return m.getFn(ctx, id)
}

func (m *mockAcronymService) Search(ctx context.Context, term string) ([]models.Acronym, error) {
	return m.searchFn(ctx, term)
}

func (m *mockAcronymService) Create(ctx context.Context, owner *models.User, req *models.AcronymRequest) (*models.Acronym, error) {
	return m.createFn(ctx, owner, req)
}

func (m *mockAcronymService) Update(ctx context.Context, editor *models.User, id int, req *models.AcronymRequest) (*models.Acronym, error) {
	return m.updateFn(ctx, editor, id, req)
}

func (m *mockAcronymService) Delete(ctx context.Context, id int) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockAcronymService) GetUser(ctx context.Context, id int) (*models.PublicUser, error) {
	return m.getUserFn(ctx, id)
}

func (m *mockAcronymService) GetCategories(ctx context.Context, id int) ([]models.Category, error) {
	if m.getCategoriesFn == nil {
		return []models.Category{}, nil
	}
	return m.getCategoriesFn(ctx, id)
}

func (m *mockAcronymService) AttachCategory(ctx context.Context, acronymID, categoryID int) error {
	return m.attachFn(ctx, acronymID, categoryID)
}

func (m *mockAcronymService) DetachCategory(ctx context.Context, acronymID, categoryID int) error {
	return m.detachFn(ctx, acronymID, categoryID)
}

type mockCategoryService struct {
	listFn     func(ctx context.Context) ([]models.Category, error)
	getFn      func(ctx context.Context, id int) (*models.Category, error)
	createFn   func(ctx context.Context, name string) (*models.Category, error)
	acronymsFn func(ctx context.Context, id int) ([]models.Acronym, error)
	pivots     []models.AcronymCategoryPivot
	all        []models.CategoryWithAcronyms
}

func (m *mockCategoryService) List(ctx context.Context) ([]models.Category, error) {
	if m.listFn == nil {
		return []models.Category{}, nil
	}
	return m.listFn(ctx)
}

func (m *mockCategoryService) Get(ctx context.Context, id int) (*models.Category, error) {
	if m.getFn == nil {
		return nil, models.ErrNotFound
	}
	return m.getFn(ctx, id)
}

func (m *mockCategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	return m.createFn(ctx, name)
}

func (m *mockCategoryService) GetAcronyms(ctx context.Context, id int) ([]models.Acronym, error) {
	if m.acronymsFn == nil {
		return []models.Acronym{}, nil
	}
	return m.acronymsFn(ctx, id)
}

func (m *mockCategoryService) GetPivots(ctx context.Context) ([]models.AcronymCategoryPivot, error) {
	return m.pivots, nil
}

func (m *mockCategoryService) GetAllWithAcronyms(ctx context.Context) ([]models.CategoryWithAcronyms, error) {
	return m.all, nil
}

type mockPokemonService struct {
	pokemons []models.Pokemon
	catchFn  func(ctx context.Context, name string) (*models.Pokemon, error)
}

func (m *mockPokemonService) List(ctx context.Context) ([]models.Pokemon, error) {
	return m.pokemons, nil
}

func (m *mockPokemonService) Get(ctx context.Context, id int) (*models.Pokemon, error) {
	for i := range m.pokemons {
		if m.pokemons[i].ID == id {
			return &m.pokemons[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *mockPokemonService) Catch(ctx context.Context, name string) (*models.Pokemon, error) {
	return m.catchFn(ctx, name)
}

type mockPasswordService struct {
	requested []string
	requestFn func(ctx context.Context, email string) error
	resetFn   func(ctx context.Context, token, password string) error
}

func (m *mockPasswordService) RequestReset(ctx context.Context, email string) error {
	m.requested = append(m.requested, email)
	if m.requestFn == nil {
		return nil
	}
	return m.requestFn(ctx, email)
}

func (m *mockPasswordService) ResetPassword(ctx context.Context, token, password string) error {
	return m.resetFn(ctx, token, password)
}

// mockSessions records the session operations of the web handlers
type mockSessions struct {
	authenticated []*models.User
	loggedOut     int
	csrfToken     string
	consumeErr    error
	consumed      []string
}

func (m *mockSessions) AuthenticateSession(ctx context.Context, w http.ResponseWriter, user *models.User) error {
	m.authenticated = append(m.authenticated, user)
	http.SetCookie(w, &http.Cookie{Name: auth.SessionCookieName, Value: "session-id", Path: "/"})
	return nil
}

func (m *mockSessions) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	m.loggedOut++
	return nil
}

func (m *mockSessions) IssueCSRFToken(ctx context.Context, r *http.Request) (string, error) {
	if m.csrfToken == "" {
		m.csrfToken = "csrf-token"
	}
	return m.csrfToken, nil
}

func (m *mockSessions) ConsumeCSRFToken(ctx context.Context, r *http.Request, submitted string) error {
	m.consumed = append(m.consumed, submitted)
	return m.consumeErr
}

type mockProvider struct {
	name           string
	identity       *oauth.Identity
	authErr        error
	exchangedCodes []string
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) CallbackPath() string {
	return "/oauth/" + m.name
}

func (m *mockProvider) AuthCodeURL(state string) string {
	return "https://provider.test/authorize?state=" + state
}

func (m *mockProvider) Authenticate(ctx context.Context, code string) (*oauth.Identity, error) {
	m.exchangedCodes = append(m.exchangedCodes, code)
	if m.authErr != nil {
		return nil, m.authErr
	}
	return m.identity, nil
}

type stubRegistry []string

func (s stubRegistry) List() []string {
	return s
}
