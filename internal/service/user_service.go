package service

import (
	"context"

	"pathwiki/internal/credential"
	"pathwiki/internal/data"
)

// UserRepository defines the interface for database operations on users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *data.User) error
	GetUserByName(ctx context.Context, username string) (*data.User, error)
	GetUserByID(ctx context.Context, id int64) (*data.User, error)
}

// UserServicer defines the interface for account operations.
type UserServicer interface {
	Register(ctx context.Context, username, password, email string) (*data.User, error)
	Authenticate(ctx context.Context, username, password string) (*data.User, error)
	FindByName(ctx context.Context, username string) (*data.User, error)
	FindByID(ctx context.Context, id int64) (*data.User, error)
}

// UserService provides business logic for registration and login.
type UserService struct {
	repo UserRepository
}

// NewUserService creates a new UserService with the given repository.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register creates a new user with a fresh salted password digest. It
// does not check for an existing username; the signup handler does that
// before calling Register, which leaves a small window where two
// concurrent signups with the same name both succeed.
func (s *UserService) Register(ctx context.Context, username, password, email string) (*data.User, error) {
	digest, err := credential.HashPassword(username, password)
	if err != nil {
		return nil, err
	}

	user := &data.User{
		Username:       username,
		PasswordDigest: digest,
		Email:          email,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate looks a user up by name and verifies the password.
// Returns (nil, nil) when the user does not exist or the password is
// wrong; the caller shows one generic failure message either way.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*data.User, error) {
	user, err := s.repo.GetUserByName(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !credential.CheckPassword(username, password, user.PasswordDigest) {
		return nil, nil
	}
	return user, nil
}

// FindByName retrieves a user by username, or nil if absent.
func (s *UserService) FindByName(ctx context.Context, username string) (*data.User, error) {
	return s.repo.GetUserByName(ctx, username)
}

// FindByID retrieves a user by id, or nil if absent.
func (s *UserService) FindByID(ctx context.Context, id int64) (*data.User, error) {
	return s.repo.GetUserByID(ctx, id)
}
