package services

import (
	"context"

	"github.com/tilapp/til/internal/models"
)

// UserReader is the interface that wraps read access to users
type UserReader interface {
	GetAll(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// UserAcronymReader lists the acronyms of a user
type UserAcronymReader interface {
	GetByUserID(ctx context.Context, userID int) ([]models.Acronym, error)
}

// userService implements public user listings
type userService struct {
	users    UserReader
	acronyms UserAcronymReader
}

// NewUserService creates a new user service
func NewUserService(users UserReader, acronyms UserAcronymReader) *userService {
	return &userService{
		users:    users,
		acronyms: acronyms,
	}
}

// List returns the public view of every active user
func (s *userService) List(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.PublicUser, 0, len(users))
	for i := range users {
		result = append(result, users[i].Public())
	}
	return result, nil
}

// Get returns the public view of an active user
func (s *userService) Get(ctx context.Context, id int) (*models.PublicUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// GetAcronyms returns the acronyms of an active user
func (s *userService) GetAcronyms(ctx context.Context, id int) ([]models.Acronym, error) {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.acronyms.GetByUserID(ctx, id)
}
