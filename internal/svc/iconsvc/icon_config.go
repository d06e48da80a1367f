package iconsvc

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidIconConfig is returned when the icon configuration is inconsistent.
var ErrInvalidIconConfig = errors.New("invalid icon config")

// Upload consistency modes.
const (
	// UploadConsistencyRefresh writes the new digest to the hash cache right after storing an upload.
	UploadConsistencyRefresh = "refresh"
	// UploadConsistencyTTL leaves the hash cache alone; a stale digest is served until it expires.
	UploadConsistencyTTL = "ttl"
)

// IconConfig holds configuration parameters for the icon service.
type IconConfig struct {
	// HashTTL is the lifetime of a cached icon hash
	HashTTL time.Duration `env:"HASH_TTL" envDefault:"1500ms"`

	// CacheTimeout bounds every hash cache call; a timed out lookup counts as a miss
	CacheTimeout time.Duration `env:"CACHE_TIMEOUT" envDefault:"100ms"`

	// UploadConsistency is either "refresh" or "ttl"
	UploadConsistency string `env:"UPLOAD_CONSISTENCY" envDefault:"refresh"`

	// SingleFlight collapses concurrent cache misses for the same user into one storage read
	SingleFlight bool `env:"SINGLE_FLIGHT" envDefault:"false"`

	// FallbackFile is the image served to users without an icon.
	// A placeholder is generated when empty.
	FallbackFile string `env:"FALLBACK_FILE" envDefault:""`
}

// Validate checks the configuration for values the service cannot work with.
func (cfg IconConfig) Validate() error {
	switch {
	case cfg.HashTTL <= 0:
		return fmt.Errorf("%w: hash ttl must be positive, got %s", ErrInvalidIconConfig, cfg.HashTTL)
	case cfg.CacheTimeout <= 0:
		return fmt.Errorf("%w: cache timeout must be positive, got %s", ErrInvalidIconConfig, cfg.CacheTimeout)
	case cfg.UploadConsistency != UploadConsistencyRefresh && cfg.UploadConsistency != UploadConsistencyTTL:
		return fmt.Errorf("%w: unknown upload consistency %q", ErrInvalidIconConfig, cfg.UploadConsistency)
	default:
		return nil
	}
}
