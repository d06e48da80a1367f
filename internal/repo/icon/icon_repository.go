package icon

import (
	"context"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
)

// Repository defines the interface for icon content storage.
// Each user owns at most one icon, addressed by the user ID alone.
type Repository interface {
	// Store replaces the user's icon with the given content.
	// Readers observe either the old or the new content, never a partial write.
	// Returns an error wrapping domain.ErrIconStorageWrite on failure.
	Store(ctx context.Context, icon *domain.Icon) error

	// Fetch reads the user's icon.
	// Returns false and no error if the user has no icon, and an error wrapping
	// domain.ErrIconStorageRead for any other failure.
	Fetch(ctx context.Context, userID int64) (*domain.Icon, bool, error)
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func(ctx context.Context) (Repository, error)
