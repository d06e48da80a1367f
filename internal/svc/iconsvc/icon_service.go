package iconsvc

import (
	"context"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
)

// IconService defines the interface for resolving, uploading and serving user icons.
type IconService interface {
	// ResolveHash returns the icon hash of the user, trying the hash cache,
	// then the icon store, then the fallback icon. It never fails; backend
	// errors degrade to the next tier.
	ResolveHash(ctx context.Context, userID int64) domain.IconHash

	// UploadIcon decodes a base64 payload and stores it as the user's icon.
	// Returns the digest of the stored bytes.
	// Returns domain.ErrIconDecode or domain.ErrIconStorageWrite on failure.
	UploadIcon(ctx context.Context, userID int64, payload string) (string, error)

	// FetchIcon returns the user's icon bytes, or the fallback icon if the
	// user has none, together with the digest of the returned bytes.
	FetchIcon(ctx context.Context, userID int64) ([]byte, domain.IconHash)
}
