package service

import (
	"context"
	"errors"
)

// ErrNoIdentity is returned when a request carries no user id.
var ErrNoIdentity = errors.New("no user identity")

// UserRepository defines the persistence operations needed by UserService.
type UserRepository interface {
	// UserExists returns true if a user with the given login exists.
	UserExists(ctx context.Context, login string) (bool, error)
	// RegisterUser records the login; an existing login is left untouched.
	RegisterUser(ctx context.Context, login string) error
}

// UserService mirrors identity-provider users into storage so contacts and
// categories have an owner row to reference.
type UserService struct {
	repo UserRepository
}

// NewUserService constructs a UserService using the provided repository.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// UserExists checks whether a user with the specified login exists.
func (s *UserService) UserExists(ctx context.Context, login string) (bool, error) {
	return s.repo.UserExists(ctx, login)
}

// EnsureUser records login if it is not known yet.
func (s *UserService) EnsureUser(ctx context.Context, login string) error {
	if login == "" {
		return ErrNoIdentity
	}
	return s.repo.RegisterUser(ctx, login)
}
