package models

import "time"

// Pokemon is a caught pokemon verified against the public pokemon registry
type Pokemon struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// PokemonRequest is the body of a pokemon catch request
type PokemonRequest struct {
	Name string `json:"name"`
}
