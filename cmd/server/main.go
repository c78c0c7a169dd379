package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "github.com/tilapp/til/docs"
	"github.com/tilapp/til/internal/auth"
	"github.com/tilapp/til/internal/cache"
	"github.com/tilapp/til/internal/chat"
	"github.com/tilapp/til/internal/config"
	"github.com/tilapp/til/internal/database"
	"github.com/tilapp/til/internal/handlers"
	"github.com/tilapp/til/internal/logger"
	"github.com/tilapp/til/internal/metrics"
	"github.com/tilapp/til/internal/oauth"
	"github.com/tilapp/til/internal/pokeapi"
	"github.com/tilapp/til/internal/repositories"
	"github.com/tilapp/til/internal/sanitize"
	"github.com/tilapp/til/internal/services"
	"github.com/tilapp/til/internal/tasks"
	"github.com/tilapp/til/internal/view"
	"go.uber.org/zap"
)

const pokeAPITimeout = 10 * time.Second

// @title TIL API
// @version 1.0
// @description API for sharing acronyms ("Today I Learned")

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token returned by /users/login.
// @securityDefinitions.basic BasicAuth
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting TIL server")

	// Connect to database
	db, err := database.Connect(context.Background(), cfg.DSN(), database.DefaultRetryPolicy, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db, database.MigrationsPath()); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	taskClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer taskClient.Close()

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	tokenRepo := repositories.NewTokenRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	acronymRepo := repositories.NewAcronymRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	pokemonRepo := repositories.NewPokemonRepository(db)
	resetTokenRepo := repositories.NewResetPasswordTokenRepository(db)

	if cfg.SeedAdminPassword != "" {
		if err := services.SeedAdmin(context.Background(), userRepo, cfg.SeedAdminPassword, logger.Logger); err != nil {
			logger.Logger.Fatal("Failed to seed admin user", zap.Error(err))
		}
	}

	// Initialize services
	sanitizer := sanitize.NewTextSanitizer()
	pokemonRegistry := pokeapi.NewClient(
		cfg.PokeAPI.BaseURL,
		&http.Client{Timeout: pokeAPITimeout},
		cache.NewRedisCache(rdb, "til:pokeapi:"),
		cfg.PokeAPI.CacheTTL,
		collector,
		logger.Logger,
	)

	authService := services.NewAuthService(userRepo, tokenRepo, logger.Logger)
	adminService := services.NewAdminService(userRepo, logger.Logger)
	userService := services.NewUserService(userRepo, acronymRepo)
	categoryService := services.NewCategoryService(categoryRepo, collector, logger.Logger)
	acronymService := services.NewAcronymService(acronymRepo, categoryService, userRepo, sanitizer, logger.Logger)
	pokemonService := services.NewPokemonService(pokemonRepo, pokemonRegistry, logger.Logger)
	passwordService := services.NewPasswordResetService(
		resetTokenRepo,
		userRepo,
		tokenRepo,
		tasks.NewPublisher(taskClient),
		cfg.AppBaseURL,
		cfg.ResetTokenTTL,
		logger.Logger,
	)
	sessions := auth.NewSessionManager(sessionRepo, userRepo, cfg.Session.TTL, cfg.Session.CookieSecure, logger.Logger)

	// Initialize web assets
	renderer, err := view.NewRenderer()
	if err != nil {
		logger.Logger.Fatal("Failed to parse templates", zap.Error(err))
	}
	chatRegistry := chat.NewRegistry(logger.Logger)

	providers, oauthHandler := setupOAuth(cfg, authService, sessions)

	// Setup router
	r := handlers.NewRouter(handlers.RouterConfig{
		Logger:         logger.Logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		SwaggerURL:     fmt.Sprintf("%s/swagger/doc.json", cfg.AppBaseURL),
		Metrics:        collector.Middleware,
		MetricsHandler: metrics.Handler(registry),
		Auth:           auth.NewMiddleware(authService, authService, sessions, collector, logger.Logger),
		Users:          handlers.NewUserHandler(userService, authService, adminService, logger.Logger),
		Acronyms:       handlers.NewAcronymHandler(acronymService, logger.Logger),
		Categories:     handlers.NewCategoryHandler(categoryService, logger.Logger),
		Pokemons:       handlers.NewPokemonHandler(pokemonService, logger.Logger),
		Passwords:      handlers.NewPasswordHandler(passwordService, logger.Logger),
		Web: handlers.NewWebHandler(
			renderer,
			sessions,
			authService,
			acronymService,
			userService,
			categoryService,
			passwordService,
			providers,
			logger.Logger,
		),
		OAuth: oauthHandler,
		Chat:  handlers.NewChatHandler(renderer, chatRegistry, chat.NewSocketHandler(chatRegistry, sanitizer, logger.Logger), logger.Logger),
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// setupOAuth builds the configured OAuth providers. The handler is nil when none is enabled.
func setupOAuth(cfg *config.Config, accounts handlers.ExternalAccounts, sessions handlers.SessionStarter) ([]string, *handlers.OAuthHandler) {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	var providers []handlers.OAuthProvider
	var names []string
	if cfg.OAuth.Google.Enabled() {
		providers = append(providers, oauth.NewGoogle(cfg.OAuth.Google, oauth.Endpoints{}, httpClient))
		names = append(names, oauth.ProviderGoogle)
	}
	if cfg.OAuth.GitHub.Enabled() {
		providers = append(providers, oauth.NewGitHub(cfg.OAuth.GitHub, oauth.Endpoints{}, httpClient))
		names = append(names, oauth.ProviderGitHub)
	}
	if len(providers) == 0 {
		return nil, nil
	}

	logger.Logger.Info("OAuth login enabled", zap.Strings("providers", names))
	signer := oauth.NewStateSigner(cfg.OAuth.StateSecret, oauth.DefaultStateTTL)
	return names, handlers.NewOAuthHandler(providers, signer, accounts, sessions, logger.Logger)
}
