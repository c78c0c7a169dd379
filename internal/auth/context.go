// Package auth resolves request credentials into users and guards routes by role
package auth

import (
	"context"

	"github.com/tilapp/til/internal/models"
)

type contextKey string

const userKey contextKey = "user"

// WithUser returns a copy of ctx carrying the authenticated user
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user from context
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}
