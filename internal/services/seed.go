package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminUsername is the username of the seeded administrator
const AdminUsername = "admin"

// SeedUserRepository is the part of the user repository used by seeding
type SeedUserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// SeedAdmin creates the administrator account unless it already exists
func SeedAdmin(ctx context.Context, users SeedUserRepository, password string, logger *zap.Logger) error {
	_, err := users.GetByUsername(ctx, AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if err := validatePassword(password); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.User{
		Name:         "Admin",
		Username:     AdminUsername,
		Email:        "admin@localhost.local",
		PasswordHash: string(passwordHash),
		Role:         models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil && !errors.Is(err, models.ErrConflict) {
		return err
	}

	logger.Info("admin user seeded", zap.Int("user_id", admin.ID))
	return nil
}
