package auth

import (
	"fmt"

	"github.com/tilapp/til/internal/models"
)

// RequireRole succeeds only when the user holds exactly the given role
func RequireRole(user *models.User, role models.Role) error {
	if user == nil {
		return models.ErrUnauthenticated
	}
	if user.Role != role {
		return fmt.Errorf("role %q required: %w", role, models.ErrForbidden)
	}
	return nil
}
