package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tilapp/til/internal/models"
)

// pokemonRepository implements PokemonRepository
type pokemonRepository struct {
	db *sql.DB
}

// NewPokemonRepository creates a new pokemon repository
func NewPokemonRepository(db *sql.DB) *pokemonRepository {
	return &pokemonRepository{
		db: db,
	}
}

// GetAll retrieves every caught pokemon
func (r *pokemonRepository) GetAll(ctx context.Context) ([]models.Pokemon, error) {
	query := `SELECT id, name, created_at FROM pokemons ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pokemons: %w", err)
	}
	defer rows.Close()

	pokemons := []models.Pokemon{}
	for rows.Next() {
		var pokemon models.Pokemon
		if err := rows.Scan(&pokemon.ID, &pokemon.Name, &pokemon.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pokemon: %w", err)
		}
		pokemons = append(pokemons, pokemon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pokemons: %w", err)
	}

	return pokemons, nil
}

// GetByID retrieves a pokemon by ID
func (r *pokemonRepository) GetByID(ctx context.Context, id int) (*models.Pokemon, error) {
	query := `SELECT id, name, created_at FROM pokemons WHERE id = ?`

	pokemon := &models.Pokemon{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&pokemon.ID, &pokemon.Name, &pokemon.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pokemon: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pokemon: %w", err)
	}

	return pokemon, nil
}

// ExistsByName checks if a pokemon with exactly this name was already caught
func (r *pokemonRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM pokemons WHERE name = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pokemon existence: %w", err)
	}

	return exists, nil
}

// Create inserts a new pokemon
func (r *pokemonRepository) Create(ctx context.Context, pokemon *models.Pokemon) error {
	query := `INSERT INTO pokemons (name) VALUES (?)`

	result, err := r.db.ExecContext(ctx, query, pokemon.Name)
	if err != nil {
		return fmt.Errorf("failed to create pokemon: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	pokemon.ID = int(id)
	return nil
}
