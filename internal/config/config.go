// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	Logging    LoggingConfig
	CORS       CORSConfig
	Session    SessionConfig
	SMTP       SMTPConfig
	PokeAPI    PokeAPIConfig
	OAuth      OAuthConfig
	AppBaseURL string
	// ResetTokenTTL is the lifetime of a password reset token
	ResetTokenTTL     time.Duration
	SeedAdminPassword string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port of the Redis server
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// SessionConfig holds browser session settings
type SessionConfig struct {
	TTL          time.Duration
	CookieSecure bool
}

// SMTPConfig holds SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// PokeAPIConfig holds settings of the external pokemon registry
type PokeAPIConfig struct {
	BaseURL  string
	CacheTTL time.Duration
}

// OAuthProviderConfig holds client credentials of a single OAuth provider
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether the provider has enough configuration to be used
func (c OAuthProviderConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.CallbackURL != ""
}

// OAuthConfig holds configuration of all OAuth providers
type OAuthConfig struct {
	StateSecret string
	Google      OAuthProviderConfig
	GitHub      OAuthProviderConfig
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	cfg.Server.Port, err = intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}

	// Logging configuration
	cfg.Logging.Level = stringEnv("LOG_LEVEL", "info")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// Session configuration
	cfg.Session.TTL, err = durationEnv("SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.Session.CookieSecure, err = boolEnv("SESSION_COOKIE_SECURE", false)
	if err != nil {
		return nil, err
	}

	// Redis configuration
	cfg.Redis.Host = stringEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port, err = intEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional
	cfg.Redis.DB, err = intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	// PokeAPI configuration
	cfg.PokeAPI.BaseURL = strings.TrimRight(stringEnv("POKEAPI_BASE_URL", "https://pokeapi.co/api/v2"), "/")
	cfg.PokeAPI.CacheTTL, err = durationEnv("POKEAPI_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	// SMTP configuration (optional, used by the worker)
	cfg.SMTP.Host = stringEnv("SMTP_HOST", "localhost")
	cfg.SMTP.Port, err = intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME") // optional
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD") // optional
	cfg.SMTP.From = stringEnv("SMTP_FROM", "noreply@til.local")

	cfg.AppBaseURL = strings.TrimRight(stringEnv("APP_BASE_URL", "http://localhost:8080"), "/")

	cfg.ResetTokenTTL, err = durationEnv("RESET_TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	cfg.SeedAdminPassword = os.Getenv("SEED_ADMIN_PASSWORD")

	// OAuth configuration
	cfg.OAuth.StateSecret = os.Getenv("OAUTH_STATE_SECRET")
	cfg.OAuth.Google = OAuthProviderConfig{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		CallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
	}
	cfg.OAuth.GitHub = OAuthProviderConfig{
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		CallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
	}
	if (cfg.OAuth.Google.Enabled() || cfg.OAuth.GitHub.Enabled()) && cfg.OAuth.StateSecret == "" {
		return nil, fmt.Errorf("OAUTH_STATE_SECRET is required when an OAuth provider is configured")
	}

	return cfg, nil
}

// DSN returns the database connection string. The session time zone is pinned to
// UTC so CURRENT_TIMESTAMP defaults match the UTC times the driver parses.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC&time_zone=%%27%%2B00%%3A00%%27",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// parseOrigins parses a comma-separated list of origins, defaulting to all origins
func parseOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, origin := range parts {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
