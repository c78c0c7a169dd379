package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tilapp/til/internal/auth"
	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user; its ID is set on success.
	//
	// If the username or email is taken, models.ErrConflict will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByID retrieves an active user by ID.
	//
	// If user with such ID does not exist or was soft-deleted, models.ErrNotFound will be returned.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method GetByUsername retrieves an active user by exact username.
	//
	// If user with such username does not exist, models.ErrNotFound will be returned.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Method GetByEmail retrieves an active user by email.
	//
	// If user with such email does not exist, models.ErrNotFound will be returned.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method CreateExternal inserts a new user linked to an OAuth provider account.
	//
	// If the username, email or provider account is taken, models.ErrConflict will be returned.
	CreateExternal(ctx context.Context, user *models.User, provider, subject string) error
	// Method GetByExternalIdentity retrieves the active user linked to a provider account.
	//
	// If no such link exists, models.ErrNotFound will be returned.
	GetByExternalIdentity(ctx context.Context, provider, subject string) (*models.User, error)
}

// TokenRepository is the interface that wraps methods for Token table data access
type TokenRepository interface {
	// Method Create inserts a new token; its ID is set on success.
	Create(ctx context.Context, token *models.Token) error
	// Method GetUserByValue retrieves the live owner of a token.
	//
	// If the token is unknown or its owner was soft-deleted, models.ErrNotFound will be returned.
	GetUserByValue(ctx context.Context, value string) (*models.User, error)
}

// authService implements credential verification, token issuance and registration
type authService struct {
	userRepo  UserRepository
	tokenRepo TokenRepository
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, tokenRepo TokenRepository, logger *zap.Logger) *authService {
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		logger:    logger,
	}
}

// Verify checks a username/password pair.
// The lookup is exact; a missing user yields models.ErrNotFound and
// a wrong password models.ErrInvalidCredentials.
func (s *authService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return user, nil
}

// IssueToken creates and stores a new opaque token for the user
func (s *authService) IssueToken(ctx context.Context, user *models.User) (*models.Token, error) {
	value, err := auth.RandomToken()
	if err != nil {
		return nil, err
	}

	token := &models.Token{Value: value, UserID: user.ID}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	return token, nil
}

// ResolveToken returns the live owner of a token
func (s *authService) ResolveToken(ctx context.Context, value string) (*models.User, error) {
	if value == "" {
		return nil, models.ErrUnauthenticated
	}

	user, err := s.tokenRepo.GetUserByValue(ctx, value)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Register validates and creates a new standard user
func (s *authService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if err := validateNewUser(req); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Role:         models.RoleStandard,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// FindOrCreateExternalUser returns the user linked to an OAuth provider account,
// creating and linking one with an unusable random password on first login.
// Accounts are never matched by username or email: when those belong to another
// local account the login fails with models.ErrConflict.
func (s *authService) FindOrCreateExternalUser(ctx context.Context, identity models.ExternalIdentity) (*models.User, error) {
	if identity.Provider == "" || identity.Subject == "" {
		return nil, models.NewValidationError("provider account id is required")
	}

	user, err := s.userRepo.GetByExternalIdentity(ctx, identity.Provider, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	name := identity.Name
	if name == "" {
		name = identity.Username
	}
	if err := validateTextLength("name", name); err != nil {
		return nil, err
	}
	if err := validateTextLength("username", identity.Username); err != nil {
		return nil, err
	}
	if err := validateTextLength("email", identity.Email); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user = &models.User{
		Name:         name,
		Username:     identity.Username,
		Email:        identity.Email,
		PasswordHash: string(passwordHash),
		Role:         models.RoleStandard,
	}
	if err := s.userRepo.CreateExternal(ctx, user, identity.Provider, identity.Subject); err != nil {
		if !errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		// a concurrent callback for the same account may have won the insert
		linked, lookupErr := s.userRepo.GetByExternalIdentity(ctx, identity.Provider, identity.Subject)
		if lookupErr == nil {
			return linked, nil
		}
		s.logger.Warn("external login collides with a local account",
			zap.String("provider", identity.Provider), zap.String("username", identity.Username))
		return nil, err
	}

	s.logger.Info("external user created", zap.Int("user_id", user.ID),
		zap.String("provider", identity.Provider), zap.String("username", user.Username))
	return user, nil
}
