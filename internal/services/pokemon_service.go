package services

import (
	"context"
	"strings"

	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

// PokemonRepository is the interface that wraps methods for Pokemon table data access
type PokemonRepository interface {
	// Method GetAll retrieves every caught pokemon.
	GetAll(ctx context.Context) ([]models.Pokemon, error)
	// Method GetByID retrieves a pokemon by ID.
	//
	// If pokemon with such ID does not exist, models.ErrNotFound will be returned.
	GetByID(ctx context.Context, id int) (*models.Pokemon, error)
	// Method ExistsByName reports whether a pokemon with exactly this name was caught.
	ExistsByName(ctx context.Context, name string) (bool, error)
	// Method Create inserts a new pokemon; its ID is set on success.
	Create(ctx context.Context, pokemon *models.Pokemon) error
}

// PokemonVerifier checks names against the public pokemon registry
type PokemonVerifier interface {
	// Method Verify reports whether name is a real pokemon.
	Verify(ctx context.Context, name string) (bool, error)
}

// pokemonService implements the pokemon catch list
type pokemonService struct {
	repo     PokemonRepository
	verifier PokemonVerifier
	logger   *zap.Logger
}

// NewPokemonService creates a new pokemon service
func NewPokemonService(repo PokemonRepository, verifier PokemonVerifier, logger *zap.Logger) *pokemonService {
	return &pokemonService{
		repo:     repo,
		verifier: verifier,
		logger:   logger,
	}
}

// List returns every caught pokemon
func (s *pokemonService) List(ctx context.Context) ([]models.Pokemon, error) {
	return s.repo.GetAll(ctx)
}

// Get returns a caught pokemon by ID
func (s *pokemonService) Get(ctx context.Context, id int) (*models.Pokemon, error) {
	return s.repo.GetByID(ctx, id)
}

// Catch stores a pokemon that is real and not caught yet
func (s *pokemonService) Catch(ctx context.Context, name string) (*models.Pokemon, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name is required")
	}

	exists, err := s.repo.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewValidationError("you already caught " + name)
	}

	isReal, err := s.verifier.Verify(ctx, name)
	if err != nil {
		return nil, err
	}
	if !isReal {
		return nil, models.NewValidationError("fake pokemon " + name)
	}

	pokemon := &models.Pokemon{Name: name}
	if err := s.repo.Create(ctx, pokemon); err != nil {
		return nil, err
	}

	s.logger.Info("pokemon caught", zap.Int("pokemon_id", pokemon.ID), zap.String("name", name))
	return pokemon, nil
}
