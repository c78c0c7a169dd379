package models

import "time"

// Acronym is a short/long text pair owned by a user
type Acronym struct {
	ID        int       `json:"id"`
	Short     string    `json:"short"`
	Long      string    `json:"long"`
	UserID    int       `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AcronymRequest is the body of acronym create and update requests.
// Categories is optional; nil leaves the categories of an existing acronym untouched.
type AcronymRequest struct {
	Short      string    `json:"short"`
	Long       string    `json:"long"`
	Categories *[]string `json:"categories,omitempty"`
}

// AcronymSort selects the ordering of acronym listings
type AcronymSort int

// AcronymSort constants
const (
	AcronymSortNone AcronymSort = iota
	// AcronymSortShort orders by short ascending
	AcronymSortShort
	// AcronymSortRecent orders by update time, newest first
	AcronymSortRecent
)
