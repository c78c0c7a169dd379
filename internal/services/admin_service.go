package services

import (
	"context"
	"fmt"

	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

// AdminUserRepository is the interface that wraps User table methods used by admin actions
type AdminUserRepository interface {
	// Method GetByIDWithDeleted retrieves a user by ID whether or not it was soft-deleted.
	//
	// If user with such ID does not exist, models.ErrNotFound will be returned.
	GetByIDWithDeleted(ctx context.Context, id int) (*models.User, error)
	// Method SoftDelete marks an active user as deleted. Tokens and sessions of the user stop resolving.
	//
	// If no active user with such ID exists, models.ErrNotFound will be returned.
	SoftDelete(ctx context.Context, id int) error
	// Method Restore clears the deleted mark of a soft-deleted user.
	//
	// If no soft-deleted user with such ID exists, models.ErrNotFound will be returned.
	Restore(ctx context.Context, id int) error
	// Method ForceDelete removes a user row together with its tokens, sessions and acronyms.
	//
	// If user with such ID does not exist, models.ErrNotFound will be returned.
	ForceDelete(ctx context.Context, id int) error
	// Method UpdateRole sets the role of a user.
	UpdateRole(ctx context.Context, id int, role models.Role) error
}

// adminService implements privileged user management
type adminService struct {
	userRepo AdminUserRepository
	logger   *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo AdminUserRepository, logger *zap.Logger) *adminService {
	return &adminService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// SoftDeleteUser soft-deletes a user
func (s *adminService) SoftDeleteUser(ctx context.Context, id int) error {
	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user soft-deleted", zap.Int("user_id", id))
	return nil
}

// RestoreUser restores a soft-deleted user and returns it
func (s *adminService) RestoreUser(ctx context.Context, id int) (*models.User, error) {
	if err := s.userRepo.Restore(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("user restored", zap.Int("user_id", id))
	return s.userRepo.GetByIDWithDeleted(ctx, id)
}

// ForceDeleteUser permanently deletes a user
func (s *adminService) ForceDeleteUser(ctx context.Context, id int) error {
	if err := s.userRepo.ForceDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user force-deleted", zap.Int("user_id", id))
	return nil
}

// SetRole changes the role of a user and returns the updated user
func (s *adminService) SetRole(ctx context.Context, id int, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown role %q", role))
	}

	user, err := s.userRepo.GetByIDWithDeleted(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	s.logger.Info("user role changed",
		zap.Int("user_id", id),
		zap.String("from", string(user.Role)),
		zap.String("to", string(role)),
	)
	user.Role = role
	return user, nil
}
