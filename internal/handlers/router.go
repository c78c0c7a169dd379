package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/tilapp/til/internal/auth"
	"github.com/tilapp/til/internal/middlewares"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// globalRateLimit bounds requests per client IP across the whole server
const globalRateLimit = 100

// RouterConfig holds everything the router is assembled from
type RouterConfig struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	// SwaggerURL is the location of doc.json served to the swagger UI
	SwaggerURL string
	// Metrics instruments every request; MetricsHandler serves /metrics. Both are optional.
	Metrics        func(http.Handler) http.Handler
	MetricsHandler http.Handler

	Auth *auth.Middleware

	Users      *UserHandler
	Acronyms   *AcronymHandler
	Categories *CategoryHandler
	Pokemons   *PokemonHandler
	Passwords  *PasswordHandler
	Web        *WebHandler
	OAuth      *OAuthHandler
	Chat       *ChatHandler
}

// NewRouter builds the HTTP router. The route groups and their guards are fixed here:
// the JSON API lives under /api and authenticates with tokens, while every other
// route authenticates with the session cookie.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middlewares.RequestIDMiddleware)
	r.Use(middlewares.LoggerMiddleware(cfg.Logger))
	r.Use(middlewares.RecoveryMiddleware(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics)
	}
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(httprate.LimitByIP(globalRateLimit, time.Minute))
	r.Use(middlewares.BodyLimitMiddleware(middlewares.DefaultBodyLimits, cfg.Logger))

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}
	if cfg.SwaggerURL != "" {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(cfg.SwaggerURL)))
	}

	guards := NewGuards(cfg.Auth)
	r.Route("/api", func(r chi.Router) {
		cfg.Users.RegisterRoutes(r, guards)
		cfg.Acronyms.RegisterRoutes(r, guards)
		cfg.Categories.RegisterRoutes(r, guards)
		cfg.Pokemons.RegisterRoutes(r, guards)
		cfg.Passwords.RegisterRoutes(r)
	})

	requireLogin := auth.RedirectUnauthenticated("/login")
	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.SessionAuthenticator)
		cfg.Web.RegisterRoutes(r, requireLogin)
		if cfg.OAuth != nil {
			cfg.OAuth.RegisterRoutes(r)
		}
		cfg.Chat.RegisterRoutes(r, requireLogin)
	})

	return r
}
