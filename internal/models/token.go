package models

// Token is an opaque API bearer credential owned by a user
type Token struct {
	ID     int    `json:"id"`
	Value  string `json:"value"`
	UserID int    `json:"userId"`
}
