package usersvc

import (
	"context"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
)

// HashResolver resolves the icon hash of a user. It never fails.
type HashResolver interface {
	ResolveHash(ctx context.Context, userID int64) domain.IconHash
}

// ProfileAssembler builds the public profile of a user.
type ProfileAssembler struct {
	resolver HashResolver
}

// NewProfileAssembler creates a ProfileAssembler that takes icon hashes from resolver.
func NewProfileAssembler(resolver HashResolver) *ProfileAssembler {
	return &ProfileAssembler{resolver: resolver}
}

// Assemble copies the display fields of user and adds its icon hash.
// The theme ID mirrors the user ID.
func (a *ProfileAssembler) Assemble(ctx context.Context, user *domain.User) domain.UserResponse {
	iconHash := a.resolver.ResolveHash(ctx, user.ID)

	return domain.UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		DisplayName: user.DisplayName,
		Description: user.Description,
		Theme: domain.ThemeResponse{
			ID:       user.ID,
			DarkMode: user.DarkMode,
		},
		IconHash: iconHash.Hash,
	}
}
