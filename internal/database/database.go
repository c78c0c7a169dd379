// Package database opens the MySQL connection pool and applies schema migrations
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// MigrationsTable is the golang-migrate bookkeeping table
const MigrationsTable = "til_schema_migrations"

// RetryPolicy bounds the connection attempts made on boot
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy waits up to roughly half a minute for the database to come up
var DefaultRetryPolicy = RetryPolicy{Attempts: 10, Delay: 3 * time.Second}

// Connect opens a connection pool and pings the server until it answers
// or the retry policy is exhausted.
func Connect(ctx context.Context, dsn string, policy RetryPolicy, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := pingWithRetry(ctx, db, policy, logger); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// pinger is the part of *sql.DB used while waiting for the server
type pinger interface {
	PingContext(ctx context.Context) error
}

func pingWithRetry(ctx context.Context, db pinger, policy RetryPolicy, logger *zap.Logger) error {
	attempts := max(policy.Attempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		logger.Warn("database is not ready",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to ping database: %w", ctx.Err())
		case <-time.After(policy.Delay):
		}
	}

	return fmt.Errorf("failed to ping database after %d attempts: %w", attempts, err)
}

// MigrationsPath locates the migrations directory relative to the working directory
func MigrationsPath() string {
	for _, dir := range []string{"migrations", "../migrations", "../../migrations"} {
		if _, err := os.Stat(dir); err == nil {
			return "file://" + dir
		}
	}
	return "file://migrations"
}

// RunMigrations applies every pending up migration found at sourceURL
func RunMigrations(db *sql.DB, sourceURL string) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: MigrationsTable,
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
