package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

// Renderer writes server-rendered pages
type Renderer interface {
	// Method Render executes the named page with data and writes it with the status.
	Render(w http.ResponseWriter, status int, page string, data any) error
}

// WebSessions is the interface that wraps the browser session operations
type WebSessions interface {
	// Method AuthenticateSession creates a session for the user and sets the session cookie.
	AuthenticateSession(ctx context.Context, w http.ResponseWriter, user *models.User) error
	// Method Logout destroys the request's session and clears the cookie.
	Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	// Method IssueCSRFToken stores a fresh CSRF token in the request's session.
	IssueCSRFToken(ctx context.Context, r *http.Request) (string, error)
	// Method ConsumeCSRFToken checks the submitted token and clears it.
	//
	// If the token is missing or different, models.ErrForbidden will be returned.
	ConsumeCSRFToken(ctx context.Context, r *http.Request, submitted string) error
}

// WebAccounts is the interface that wraps the credential operations of the web pages
type WebAccounts interface {
	// Method Verify checks a username/password pair.
	Verify(ctx context.Context, username, password string) (*models.User, error)
	// Method Register validates the request and creates a standard user.
	Register(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
}

const cookiesAcceptedCookie = "cookies-accepted"

// page is the data every template receives
type page struct {
	Title string
	User  *models.User
	Data  any
}

type homeData struct {
	CookiesAccepted bool
	Acronyms        []models.Acronym
}

type loginData struct {
	Error    bool
	Conflict bool
	Google   bool
	GitHub bool
}

type formError struct {
	Error string
}

type acronymsData struct {
	Acronyms []models.Acronym
}

type acronymData struct {
	Acronym    *models.Acronym
	Owner      *models.PublicUser
	Categories []models.Category
}

type acronymFormData struct {
	Error      string
	CSRFToken  string
	Short      string
	Long       string
	Categories []string
	Editing    bool
}

type usersData struct {
	Users []models.PublicUser
}

type userData struct {
	Owner    *models.PublicUser
	Acronyms []models.Acronym
}

type categoriesData struct {
	Categories []models.Category
}

type categoryData struct {
	Category *models.Category
	Acronyms []models.Acronym
}

type forgotPasswordData struct {
	Sent bool
}

type resetPasswordData struct {
	Error string
	Token string
}

type errorData struct {
	Message string
}

// WebHandler serves the server-rendered pages. Every route runs behind the session
// authenticator; routes that change data also require a logged-in user.
type WebHandler struct {
	BaseHandler
	view       Renderer
	sessions   WebSessions
	accounts   WebAccounts
	acronyms   AcronymService
	users      UserService
	categories CategoryService
	passwords  PasswordResetService
	providers  map[string]bool
}

// NewWebHandler creates a new web handler; providers names the enabled OAuth providers
func NewWebHandler(
	view Renderer,
	sessions WebSessions,
	accounts WebAccounts,
	acronyms AcronymService,
	users UserService,
	categories CategoryService,
	passwords PasswordResetService,
	providers []string,
	logger *zap.Logger,
) *WebHandler {
	enabled := make(map[string]bool, len(providers))
	for _, p := range providers {
		enabled[p] = true
	}
	return &WebHandler{
		BaseHandler: BaseHandler{Logger: logger},
		view:        view,
		sessions:    sessions,
		accounts:    accounts,
		acronyms:    acronyms,
		users:       users,
		categories:  categories,
		passwords:   passwords,
		providers:   enabled,
	}
}

// RegisterRoutes registers the web pages; requireLogin guards the pages that change data
func (h *WebHandler) RegisterRoutes(r chi.Router, requireLogin func(http.Handler) http.Handler) {
	r.Get("/", h.Home)
	r.Get("/register", h.RegisterPage)
	r.Post("/register", h.Register)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/forgot-password", h.ForgotPasswordPage)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Get("/reset-password", h.ResetPasswordPage)
	r.Post("/reset-password", h.ResetPassword)

	r.Get("/acronyms", h.Acronyms)
	r.Get("/acronyms/{id}", h.Acronym)
	r.Get("/users", h.Users)
	r.Get("/users/{id}", h.User)
	r.Get("/categories", h.Categories)
	r.Get("/categories/{id}", h.Category)

	r.Group(func(r chi.Router) {
		r.Use(requireLogin)
		r.Get("/acronyms/create", h.CreateAcronymPage)
		r.Post("/acronyms/create", h.CreateAcronym)
		r.Get("/acronyms/{id}/edit", h.EditAcronymPage)
		r.Post("/acronyms/{id}/edit", h.EditAcronym)
		r.Post("/acronyms/{id}/delete", h.DeleteAcronym)
	})
}

// render writes a page, falling back to a plain 500 when the template fails
func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	user, _ := currentUser(r)
	if err := h.view.Render(w, status, name, page{Title: title, User: user, Data: data}); err != nil {
		h.Logger.Error("failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError renders the error page matching err
func (h *WebHandler) renderError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status, message := classifyError(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("failed to "+action, zap.Error(err))
		message = "something went wrong"
	}
	h.render(w, r, status, "error", http.StatusText(status), errorData{Message: message})
}

// pageID parses the {id} URL parameter, rendering 404 when it is malformed
func (h *WebHandler) pageID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.renderError(w, r, models.ErrNotFound, "parse id")
		return 0, false
	}
	return id, true
}

// Home handles GET /
func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	acronyms, err := h.acronyms.List(r.Context(), models.AcronymSortNone)
	if err != nil {
		h.renderError(w, r, err, "get acronyms")
		return
	}

	_, err = r.Cookie(cookiesAcceptedCookie)
	h.render(w, r, http.StatusOK, "home", "Home", homeData{
		CookiesAccepted: err == nil,
		Acronyms:        acronyms,
	})
}

// RegisterPage handles GET /register
func (h *WebHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", "Register", formError{Error: r.URL.Query().Get("registerError")})
}

// Register handles POST /register
func (h *WebHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectRegisterError(w, r, "invalid form")
		return
	}

	if r.PostForm.Get("password") != r.PostForm.Get("confirmPassword") {
		h.redirectRegisterError(w, r, "passwords do not match")
		return
	}

	user, err := h.accounts.Register(r.Context(), &models.CreateUserRequest{
		Name:     r.PostForm.Get("name"),
		Username: r.PostForm.Get("username"),
		Email:    r.PostForm.Get("emailAddress"),
		Password: r.PostForm.Get("password"),
	})
	if err != nil {
		var validation *models.ValidationError
		switch {
		case errors.As(err, &validation):
			h.redirectRegisterError(w, r, validation.Message)
		case errors.Is(err, models.ErrConflict):
			h.redirectRegisterError(w, r, "username or email is already taken")
		default:
			h.renderError(w, r, err, "register user")
		}
		return
	}

	if err := h.sessions.AuthenticateSession(r.Context(), w, user); err != nil {
		h.renderError(w, r, err, "start session")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WebHandler) redirectRegisterError(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, "/register?registerError="+url.QueryEscape(message), http.StatusSeeOther)
}

// LoginPage handles GET /login
func (h *WebHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := h.loginData(r.URL.Query().Get("error") == "true")
	data.Conflict = r.URL.Query().Get("error") == "conflict"
	h.render(w, r, http.StatusOK, "login", "Log In", data)
}

func (h *WebHandler) loginData(failed bool) loginData {
	return loginData{
		Error:  failed,
		Google: h.providers["google"],
		GitHub: h.providers["github"],
	}
}

// Login handles POST /login
func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "login", "Log In", h.loginData(true))
		return
	}

	user, err := h.accounts.Verify(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidCredentials) {
			h.render(w, r, http.StatusUnauthorized, "login", "Log In", h.loginData(true))
			return
		}
		h.renderError(w, r, err, "verify credentials")
		return
	}

	if err := h.sessions.AuthenticateSession(r.Context(), w, user); err != nil {
		h.renderError(w, r, err, "start session")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout
func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), w, r); err != nil {
		h.Logger.Error("failed to log out", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ForgotPasswordPage handles GET /forgot-password
func (h *WebHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "forgot_password", "Forgotten Password", forgotPasswordData{})
}

// ForgotPassword handles POST /forgot-password
func (h *WebHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "forgot_password", "Forgotten Password", forgotPasswordData{})
		return
	}

	if err := h.passwords.RequestReset(r.Context(), r.PostForm.Get("email")); err != nil && !models.IsValidationError(err) {
		h.renderError(w, r, err, "request password reset")
		return
	}
	h.render(w, r, http.StatusOK, "forgot_password", "Forgotten Password", forgotPasswordData{Sent: true})
}

// ResetPasswordPage handles GET /reset-password, the target of the reset e-mail link
func (h *WebHandler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.renderError(w, r, models.NewValidationError("missing reset token"), "reset password")
		return
	}
	h.render(w, r, http.StatusOK, "reset_password", "Reset Password", resetPasswordData{Token: token})
}

// ResetPassword handles POST /reset-password
func (h *WebHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, models.NewValidationError("invalid form"), "reset password")
		return
	}

	token := r.PostForm.Get("token")
	if r.PostForm.Get("password") != r.PostForm.Get("confirmPassword") {
		h.render(w, r, http.StatusBadRequest, "reset_password", "Reset Password",
			resetPasswordData{Token: token, Error: "passwords do not match"})
		return
	}

	if err := h.passwords.ResetPassword(r.Context(), token, r.PostForm.Get("password")); err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			h.render(w, r, http.StatusBadRequest, "reset_password", "Reset Password",
				resetPasswordData{Token: token, Error: validation.Message})
			return
		}
		h.renderError(w, r, err, "reset password")
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Acronyms handles GET /acronyms
func (h *WebHandler) Acronyms(w http.ResponseWriter, r *http.Request) {
	acronyms, err := h.acronyms.List(r.Context(), models.AcronymSortShort)
	if err != nil {
		h.renderError(w, r, err, "get acronyms")
		return
	}
	h.render(w, r, http.StatusOK, "acronyms", "All Acronyms", acronymsData{Acronyms: acronyms})
}

// Acronym handles GET /acronyms/{id}
func (h *WebHandler) Acronym(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pageID(w, r)
	if !ok {
		return
	}

	acronym, err := h.acronyms.Get(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err, "get acronym")
		return
	}
	owner, err := h.acronyms.GetUser(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err, "get acronym owner")
		return
	}
	categories, err := h.acronyms.GetCategories(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err, "get acronym categories")
		return
	}

	h.render(w, r, http.StatusOK, "acronym", acronym.Short, acronymData{
		Acronym:    acronym,
		Owner:      owner,
		Categories: categories,
	})
}

// CreateAcronymPage handles GET /acronyms/create
func (h *WebHandler) CreateAcronymPage(w http.ResponseWriter, r *http.Request) {
	h.renderAcronymForm(w, r, http.StatusOK, acronymFormData{})
}

// renderAcronymForm renders the acronym form with a fresh CSRF token
func (h *WebHandler) renderAcronymForm(w http.ResponseWriter, r *http.Request, status int, data acronymFormData) {
	token, err := h.sessions.IssueCSRFToken(r.Context(), r)
	if err != nil {
		h.renderError(w, r, err, "issue CSRF token")
		return
	}
	data.CSRFToken = token

	title := "Create An Acronym"
	if data.Editing {
		title = "Edit Acronym"
	}
	h.render(w, r, status, "acronym_form", title, data)
}

// acronymForm parses the acronym form and checks its CSRF token
func (h *WebHandler) acronymForm(w http.ResponseWriter, r *http.Request) (*models.AcronymRequest, bool) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, models.NewValidationError("invalid form"), "parse form")
		return nil, false
	}

	if err := h.sessions.ConsumeCSRFToken(r.Context(), r, r.PostForm.Get("csrfToken")); err != nil {
		if errors.Is(err, models.ErrForbidden) || errors.Is(err, models.ErrUnauthenticated) {
			h.renderError(w, r, models.NewValidationError("invalid CSRF token"), "check CSRF token")
			return nil, false
		}
		h.renderError(w, r, err, "check CSRF token")
		return nil, false
	}

	categories := r.PostForm["categories"]
	if categories == nil {
		categories = []string{}
	}
	return &models.AcronymRequest{
		Short:      r.PostForm.Get("short"),
		Long:       r.PostForm.Get("long"),
		Categories: &categories,
	}, true
}

// CreateAcronym handles POST /acronyms/create
func (h *WebHandler) CreateAcronym(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	req, ok := h.acronymForm(w, r)
	if !ok {
		return
	}

	acronym, err := h.acronyms.Create(r.Context(), user, req)
	if err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			h.renderAcronymForm(w, r, http.StatusBadRequest, acronymFormData{
				Error:      validation.Message,
				Short:      req.Short,
				Long:       req.Long,
				Categories: *req.Categories,
			})
			return
		}
		h.renderError(w, r, err, "create acronym")
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/acronyms/%d", acronym.ID), http.StatusSeeOther)
}

// EditAcronymPage handles GET /acronyms/{id}/edit
func (h *WebHandler) EditAcronymPage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pageID(w, r)
	if !ok {
		return
	}

	acronym, err := h.acronyms.Get(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err, "get acronym")
		return
	}
	categories, err := h.acronyms.GetCategories(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err, "get acronym categories")
		return
	}

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	h.renderAcronymForm(w, r, http.StatusOK, acronymFormData{
		Short:      acronym.Short,
		Long:       acronym.Long,
		Categories: names,
		Editing:    true,
	})
}

// EditAcronym handles POST /acronyms/{id}/edit
func (h *WebHandler) EditAcronym(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	id, ok := h.pageID(w, r)
	if !ok {
		return
	}

	req, ok := h.acronymForm(w, r)
	if !ok {
		return
	}

	if _, err := h.acronyms.Update(r.Context(), user, id, req); err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			h.renderAcronymForm(w, r, http.StatusBadRequest, acronymFormData{
				Error:      validation.Message,
				Short:      req.Short,
				Long:       req.Long,
				Categories: *req.Categories,
				Editing:    true,
			})
			return
		}
		h.renderError(w, r, err, "update acronym")
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/acronyms/%d", id), http.StatusSeeOther)
}

// DeleteAcronym handles POST /acronyms/{id}/delete
func (h *WebHandler) DeleteAcronym(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pageID(w, r)
	if !ok {
		return
	}

	if err := h.acronyms.Delete(r.Context(), id); err != nil {
		h.renderError(w, r, err, "delete acronym")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Users handles GET /users
func (h *WebHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.renderError(w, r, err, "get users")
		return
	}
	h.render(w, r, http.StatusOK, "users", "All Users", usersData{Users: users})
}

// User handles GET /users/{id}
func (h *WebHandler) User(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pageID(w, r)
	if !ok {
		return
	}

	owner, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err, "get user")
		return
	}
	acronyms, err := h.users.GetAcronyms(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err, "get user acronyms")
		return
	}
	h.render(w, r, http.StatusOK, "user", owner.Name, userData{Owner: owner, Acronyms: acronyms})
}

// Categories handles GET /categories
func (h *WebHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		h.renderError(w, r, err, "get categories")
		return
	}
	h.render(w, r, http.StatusOK, "categories", "All Categories", categoriesData{Categories: categories})
}

// Category handles GET /categories/{id}
func (h *WebHandler) Category(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pageID(w, r)
	if !ok {
		return
	}

	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err, "get category")
		return
	}
	acronyms, err := h.categories.GetAcronyms(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err, "get category acronyms")
		return
	}
	h.render(w, r, http.StatusOK, "category", category.Name, categoryData{Category: category, Acronyms: acronyms})
}
