package domain

// HashSource names the resolution tier that produced an icon hash.
type HashSource int

const (
	// HashSourceCache means the hash was served from the hash cache unverified.
	HashSourceCache HashSource = iota + 1
	// HashSourceStorage means the hash was computed from the stored icon.
	HashSourceStorage
	// HashSourceFallback means the user has no readable icon and the fallback digest was used.
	HashSourceFallback
)

func (s HashSource) String() string {
	switch s {
	case HashSourceCache:
		return "cache"
	case HashSourceStorage:
		return "storage"
	case HashSourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// IconHash is the outcome of resolving a user's icon hash.
type IconHash struct {
	Hash   string
	Source HashSource
}
