package user

import (
	"context"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// CreateUser adds a new user to the repository and returns its assigned ID.
	// Returns ErrUserAlreadyExists if the name is already taken.
	CreateUser(ctx context.Context, user *domain.User) (int64, error)

	// GetUserByID retrieves a user by numeric ID.
	// Returns the user object and true if found, or nil and false if not found.
	GetUserByID(ctx context.Context, userID int64) (*domain.User, bool, error)

	// GetUserByName retrieves a user by login name.
	// Returns the user object and true if found, or nil and false if not found.
	GetUserByName(ctx context.Context, name string) (*domain.User, bool, error)

	// DeleteUser removes the user with the given ID.
	// Deleting a user that does not exist is not an error.
	DeleteUser(ctx context.Context, userID int64) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
