package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilapp/til/internal/models"
)

func TestPokemonRepository(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewPokemonRepository(db)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT \* FROM pokemons WHERE name = \?\)`).
		WithArgs("pikachu").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO pokemons \(name\) VALUES \(\?\)`).
		WithArgs("pikachu").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT id, name, created_at FROM pokemons ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow(1, "pikachu", now))
	mock.ExpectQuery(`FROM pokemons WHERE id = \?`).
		WithArgs(2).
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByName(ctx, "pikachu")
	require.NoError(t, err)
	assert.False(t, exists)

	pokemon := &models.Pokemon{Name: "pikachu"}
	require.NoError(t, repo.Create(ctx, pokemon))
	assert.Equal(t, 1, pokemon.ID)

	pokemons, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, pokemons, 1)

	_, err = repo.GetByID(ctx, 2)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
