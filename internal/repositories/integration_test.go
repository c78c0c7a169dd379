//go:build integration

package repositories_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilapp/til/internal/config"
	"github.com/tilapp/til/internal/database"
	"github.com/tilapp/til/internal/models"
	"github.com/tilapp/til/internal/repositories"
	"github.com/tilapp/til/internal/services"
	"go.uber.org/zap"
)

var (
	testDB     *sql.DB
	testLogger *zap.Logger
)

// TestMain runs the integration tests against the MySQL server named by TEST_DB_* variables
func TestMain(m *testing.M) {
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}
	if cfg.Database.Host == "" {
		fmt.Println("TEST_DB_* is not set, skipping integration tests")
		os.Exit(0)
	}

	policy := database.RetryPolicy{Attempts: 3, Delay: time.Second}
	testDB, err = database.Connect(context.Background(), cfg.DSN(), policy, testLogger)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}

	if err := database.RunMigrations(testDB, database.MigrationsPath()); err != nil {
		panic(fmt.Sprintf("Failed to run migrations: %v", err))
	}

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

// cleanupTestData empties every table; child tables go first
func cleanupTestData(t *testing.T) {
	t.Helper()
	for _, table := range []string{"acronym_category_pivot", "categories", "acronyms", "tokens", "sessions", "reset_password_tokens", "external_identities", "pokemons", "users"} {
		_, err := testDB.Exec("DELETE FROM " + table)
		require.NoError(t, err, "Failed to clear %s", table)
	}
}

func seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Name:         "Test User",
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         models.RoleStandard,
	}
	require.NoError(t, repositories.NewUserRepository(testDB, testLogger).Create(context.Background(), user))
	return user
}

func TestIntegration_ConcurrentPlansShareNewCategory(t *testing.T) {
	cleanupTestData(t)
	defer cleanupTestData(t)

	ctx := context.Background()
	owner := seedUser(t, "owner")
	acronymRepo := repositories.NewAcronymRepository(testDB)
	categoryRepo := repositories.NewCategoryRepository(testDB)
	categories := services.NewCategoryService(categoryRepo, nil, testLogger)

	const writers = 8
	ids := make([]int, writers)
	for i := range ids {
		acronym := &models.Acronym{Short: fmt.Sprintf("A%d", i), Long: "Acronym", UserID: owner.ID}
		require.NoError(t, acronymRepo.Create(ctx, acronym))
		ids[i] = acronym.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			plan := services.Reconcile(nil, []string{"Funny", "funny"})
			errs[i] = categories.ApplyCategoryPlan(ctx, id, plan)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	all, err := categoryRepo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "names differing only in case are distinct categories")

	for _, id := range ids {
		attached, err := categoryRepo.GetByAcronymID(ctx, id)
		require.NoError(t, err)
		assert.Len(t, attached, 2)
	}
}

func TestIntegration_ForceDeleteRemovesTokens(t *testing.T) {
	cleanupTestData(t)
	defer cleanupTestData(t)

	ctx := context.Background()
	user := seedUser(t, "leaving")
	userRepo := repositories.NewUserRepository(testDB, testLogger)
	tokenRepo := repositories.NewTokenRepository(testDB)

	token := &models.Token{Value: "integration-token", UserID: user.ID}
	require.NoError(t, tokenRepo.Create(ctx, token))

	resolved, err := tokenRepo.GetUserByValue(ctx, token.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	require.NoError(t, userRepo.SoftDelete(ctx, user.ID))
	_, err = tokenRepo.GetUserByValue(ctx, token.Value)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, userRepo.ForceDelete(ctx, user.ID))
	var remaining int
	require.NoError(t, testDB.QueryRow("SELECT COUNT(*) FROM tokens WHERE user_id = ?", user.ID).Scan(&remaining))
	assert.Zero(t, remaining)
}
