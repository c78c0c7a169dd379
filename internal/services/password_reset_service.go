package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tilapp/til/internal/auth"
	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ResetTokenRepository is the interface that wraps methods for reset token data access
type ResetTokenRepository interface {
	// Method Create inserts a new reset token; its ID is set on success.
	Create(ctx context.Context, token *models.ResetPasswordToken) error
	// Method GetByToken retrieves a reset token by value.
	//
	// If the token does not exist, models.ErrNotFound will be returned.
	GetByToken(ctx context.Context, token string) (*models.ResetPasswordToken, error)
	// Method DeleteByID removes a reset token.
	DeleteByID(ctx context.Context, id int) error
}

// PasswordUserRepository is the interface that wraps User table methods used by password resets
type PasswordUserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error
}

// TokenRevoker removes every API token of a user
type TokenRevoker interface {
	DeleteByUserID(ctx context.Context, userID int) (int, error)
}

// ResetEmailEnqueuer schedules delivery of password reset e-mails
type ResetEmailEnqueuer interface {
	EnqueuePasswordReset(ctx context.Context, payload models.PasswordResetEmail) error
}

var errInvalidResetToken = models.NewValidationError("invalid or expired reset token")

// passwordResetService implements the forgot/reset password flow
type passwordResetService struct {
	resetRepo ResetTokenRepository
	userRepo  PasswordUserRepository
	tokens    TokenRevoker
	enqueuer  ResetEmailEnqueuer
	baseURL   string
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(
	resetRepo ResetTokenRepository,
	userRepo PasswordUserRepository,
	tokens TokenRevoker,
	enqueuer ResetEmailEnqueuer,
	baseURL string,
	ttl time.Duration,
	logger *zap.Logger,
) *passwordResetService {
	return &passwordResetService{
		resetRepo: resetRepo,
		userRepo:  userRepo,
		tokens:    tokens,
		enqueuer:  enqueuer,
		baseURL:   baseURL,
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

// RequestReset stores a reset token for the account with this e-mail and enqueues the
// e-mail. Unknown addresses are not reported to the caller.
func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.NewValidationError("email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Debug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	value, err := auth.RandomURLToken()
	if err != nil {
		return err
	}

	token := &models.ResetPasswordToken{Token: value, UserID: user.ID}
	if err := s.resetRepo.Create(ctx, token); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	payload := models.PasswordResetEmail{
		Email:    user.Email,
		Name:     user.Name,
		ResetURL: s.baseURL + "/reset-password?token=" + url.QueryEscape(value),
	}
	if err := s.enqueuer.EnqueuePasswordReset(ctx, payload); err != nil {
		return fmt.Errorf("failed to enqueue reset email: %w", err)
	}

	s.logger.Info("password reset requested", zap.Int("user_id", user.ID))
	return nil
}

// ResetPassword consumes a reset token, sets the new password and revokes the user's API tokens
func (s *passwordResetService) ResetPassword(ctx context.Context, value, password string) error {
	if value == "" {
		return errInvalidResetToken
	}

	token, err := s.resetRepo.GetByToken(ctx, value)
	if errors.Is(err, models.ErrNotFound) {
		return errInvalidResetToken
	}
	if err != nil {
		return err
	}

	if s.now().After(token.CreatedAt.Add(s.ttl)) {
		if err := s.resetRepo.DeleteByID(ctx, token.ID); err != nil {
			s.logger.Warn("failed to delete expired reset token", zap.Int("token_id", token.ID), zap.Error(err))
		}
		return errInvalidResetToken
	}

	if err := validatePassword(password); err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, token.UserID, string(passwordHash)); err != nil {
		return err
	}
	if err := s.resetRepo.DeleteByID(ctx, token.ID); err != nil {
		return err
	}

	revoked, err := s.tokens.DeleteByUserID(ctx, token.UserID)
	if err != nil {
		return err
	}

	s.logger.Info("password reset", zap.Int("user_id", token.UserID), zap.Int("revoked_tokens", revoked))
	return nil
}
