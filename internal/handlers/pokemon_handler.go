package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

// PokemonService is the interface that wraps methods for caught pokemons
type PokemonService interface {
	// Method List retrieves every caught pokemon.
	List(ctx context.Context) ([]models.Pokemon, error)
	// Method Get retrieves a caught pokemon by ID.
	//
	// If pokemon with such ID does not exist, models.ErrNotFound will be returned.
	Get(ctx context.Context, id int) (*models.Pokemon, error)
	// Method Catch stores a pokemon after checking it against the pokemon registry.
	//
	// If the pokemon was already caught or is not known to the registry, a models.ValidationError will be returned.
	// If the registry cannot be reached, another error will be returned.
	Catch(ctx context.Context, name string) (*models.Pokemon, error)
}

// PokemonHandler handles HTTP requests for pokemons
type PokemonHandler struct {
	BaseHandler
	service PokemonService
}

// NewPokemonHandler creates a new pokemon handler
func NewPokemonHandler(svc PokemonService, logger *zap.Logger) *PokemonHandler {
	return &PokemonHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all pokemon handler routes
func (h *PokemonHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/pokemons", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.With(guards.Token).Post("/", h.Catch)
	})
}

// List handles GET /api/pokemons
// @Summary List caught pokemons
// @Tags pokemons
// @Produce json
// @Success 200 {array} models.Pokemon
// @Router /pokemons [get]
func (h *PokemonHandler) List(w http.ResponseWriter, r *http.Request) {
	pokemons, err := h.service.List(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "get pokemons")
		return
	}
	h.RespondJSON(w, http.StatusOK, pokemons)
}

// Get handles GET /api/pokemons/{id}
// @Summary Get caught pokemon
// @Tags pokemons
// @Produce json
// @Param id path int true "Pokemon ID"
// @Success 200 {object} models.Pokemon
// @Failure 404 {object} map[string]string
// @Router /pokemons/{id} [get]
func (h *PokemonHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id", "pokemon")
	if !ok {
		return
	}

	pokemon, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err, "get pokemon")
		return
	}
	h.RespondJSON(w, http.StatusOK, pokemon)
}

// Catch handles POST /api/pokemons
// @Summary Catch pokemon
// @Description Store a pokemon that exists in the public registry and was not caught before
// @Tags pokemons
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.PokemonRequest true "Pokemon"
// @Success 201 {object} models.Pokemon
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /pokemons [post]
func (h *PokemonHandler) Catch(w http.ResponseWriter, r *http.Request) {
	var req models.PokemonRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	pokemon, err := h.service.Catch(r.Context(), req.Name)
	if err != nil {
		h.RespondServiceError(w, err, "catch pokemon")
		return
	}
	h.RespondJSON(w, http.StatusCreated, pokemon)
}
