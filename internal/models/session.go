package models

import "time"

// Session is a server-side browser session bound to a user
type Session struct {
	ID        string
	UserID    int
	CSRFToken *string
	ExpiresAt time.Time
	CreatedAt time.Time
}
