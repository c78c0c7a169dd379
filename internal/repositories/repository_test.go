package repositories

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a mock database shared by repository tests
func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return db, mock, cleanup
}

var (
	duplicateEntryErr = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	missingRefErr     = &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}
)

var userRowColumns = []string{"id", "name", "username", "email", "password_hash", "role", "deleted_at"}
