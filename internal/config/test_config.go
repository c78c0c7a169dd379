package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads database settings for tests that need a live MySQL server.
// When TEST_DB_* variables are missing the returned Config has an empty Database.Host,
// which callers treat as "skip".
func LoadTestConfig() (*Config, error) {
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{}

	host := os.Getenv("TEST_DB_HOST")
	portStr := os.Getenv("TEST_DB_PORT")
	user := os.Getenv("TEST_DB_USER")
	password := os.Getenv("TEST_DB_PASSWORD")
	name := os.Getenv("TEST_DB_NAME")
	if host == "" || portStr == "" || user == "" || name == "" {
		return cfg, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}

	cfg.Database = DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		DBName:   name,
	}
	return cfg, nil
}
