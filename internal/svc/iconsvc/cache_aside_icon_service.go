package iconsvc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/logging"
	"github.com/mkrupp/isupipe-usersvc/internal/repo/hashcache"
	"github.com/mkrupp/isupipe-usersvc/internal/repo/icon"
)

// CacheAsideIconService implements IconService over an icon repository with a
// hash cache in front of it. Cached hashes are trusted without verification
// and live for the configured HashTTL.
type CacheAsideIconService struct {
	iconRepo icon.Repository
	cache    hashcache.Cache
	fallback domain.FallbackIcon
	flight   *singleflight.Group // nil unless SingleFlight is enabled
	cfg      IconConfig
	log      logging.Logger
}

var _ IconService = (*CacheAsideIconService)(nil)

// NewCacheAsideIconService creates a new CacheAsideIconService.
// Returns an error if the configuration is invalid or repository initialization fails.
func NewCacheAsideIconService(
	ctx context.Context,
	repoFactory icon.RepositoryFactory,
	cache hashcache.Cache,
	fallback domain.FallbackIcon,
	cfg IconConfig,
) (*CacheAsideIconService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	iconRepo, err := repoFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new icon repository: %w", err)
	}

	var flight *singleflight.Group
	if cfg.SingleFlight {
		flight = new(singleflight.Group)
	}

	return &CacheAsideIconService{
		iconRepo: iconRepo,
		cache:    cache,
		fallback: fallback,
		flight:   flight,
		cfg:      cfg,
		log:      logging.GetLogger("svc.iconsvc.cache_aside_icon_service"),
	}, nil
}

// ResolveHash implements IconService.ResolveHash.
func (iconSvc *CacheAsideIconService) ResolveHash(ctx context.Context, userID int64) (result domain.IconHash) {
	log := iconSvc.log.With(logging.Group("icon", "user_id", userID))

	defer func() {
		log.DebugContext(ctx, "icon hash resolved", logging.Group("icon", "source", result.Source.String()))
	}()

	if hash, found := iconSvc.lookupHash(ctx, log, userID); found {
		return domain.IconHash{Hash: hash, Source: domain.HashSourceCache}
	}

	if iconSvc.flight == nil {
		return iconSvc.loadHash(ctx, log, userID)
	}

	// Followers share the leader's result, including a fallback outcome.
	value, _, _ := iconSvc.flight.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		return iconSvc.loadHash(ctx, log, userID), nil
	})

	//nolint:forcetypeassert
	return value.(domain.IconHash)
}

// UploadIcon implements IconService.UploadIcon.
func (iconSvc *CacheAsideIconService) UploadIcon(
	ctx context.Context,
	userID int64,
	payload string,
) (hash string, err error) {
	log := iconSvc.log.With(logging.Group("icon", "user_id", userID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "icon upload failed", "error", err)
		} else {
			log.DebugContext(ctx, "icon uploaded", logging.Group("icon", "hash", hash))
		}
	}()

	body, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", errors.Join(domain.ErrIconDecode, fmt.Errorf("decode base64: %w", err))
	}

	newIcon := domain.NewIcon(userID, body)

	if err := iconSvc.iconRepo.Store(ctx, newIcon); err != nil {
		return "", fmt.Errorf("store icon: %w", err)
	}

	hash = newIcon.Hash()

	if iconSvc.cfg.UploadConsistency == UploadConsistencyRefresh {
		// The icon is stored at this point; a failed refresh only leaves a
		// stale digest behind until HashTTL passes.
		iconSvc.storeHash(ctx, log, userID, hash)
	}

	return hash, nil
}

// FetchIcon implements IconService.FetchIcon.
func (iconSvc *CacheAsideIconService) FetchIcon(ctx context.Context, userID int64) ([]byte, domain.IconHash) {
	userIcon, found, err := iconSvc.iconRepo.Fetch(ctx, userID)
	if err != nil {
		iconSvc.log.WarnContext(ctx, "icon unreadable, serving fallback",
			logging.Group("icon", "user_id", userID),
			"error", err,
		)
	}

	if err != nil || !found {
		return iconSvc.fallback.Bytes(), iconSvc.fallbackHash()
	}

	return userIcon.Bytes(), domain.IconHash{Hash: userIcon.Hash(), Source: domain.HashSourceStorage}
}

func (iconSvc *CacheAsideIconService) loadHash(ctx context.Context, log logging.Logger, userID int64) domain.IconHash {
	userIcon, found, err := iconSvc.iconRepo.Fetch(ctx, userID)

	switch {
	case err != nil:
		log.WarnContext(ctx, "icon unreadable, using fallback hash", "error", err)

		return iconSvc.fallbackHash()
	case !found:
		return iconSvc.fallbackHash()
	}

	hash := userIcon.Hash()
	iconSvc.storeHash(ctx, log, userID, hash)

	return domain.IconHash{Hash: hash, Source: domain.HashSourceStorage}
}

func (iconSvc *CacheAsideIconService) fallbackHash() domain.IconHash {
	return domain.IconHash{Hash: iconSvc.fallback.Hash(), Source: domain.HashSourceFallback}
}

func (iconSvc *CacheAsideIconService) lookupHash(
	ctx context.Context,
	log logging.Logger,
	userID int64,
) (string, bool) {
	cacheCtx, cancel := context.WithTimeout(ctx, iconSvc.cfg.CacheTimeout)
	defer cancel()

	hash, found, err := iconSvc.cache.Get(cacheCtx, hashcache.IconHashKey(userID))
	if err != nil {
		log.WarnContext(ctx, "icon hash lookup failed, treating as miss", "error", err)

		return "", false
	}

	return hash, found
}

func (iconSvc *CacheAsideIconService) storeHash(
	ctx context.Context,
	log logging.Logger,
	userID int64,
	hash string,
) {
	cacheCtx, cancel := context.WithTimeout(ctx, iconSvc.cfg.CacheTimeout)
	defer cancel()

	if err := iconSvc.cache.Set(cacheCtx, hashcache.IconHashKey(userID), hash, iconSvc.cfg.HashTTL); err != nil {
		log.WarnContext(ctx, "icon hash store failed", "error", err)
	}
}
