package domain

// FallbackIcon is served for users without an icon of their own.
// It is created once at start-up and never modified.
type FallbackIcon struct {
	body []byte
	hash string
}

// NewFallbackIcon creates a FallbackIcon and precomputes its digest.
// The body is copied so later changes by the caller are not observed.
func NewFallbackIcon(body []byte) FallbackIcon {
	body = append([]byte(nil), body...)

	return FallbackIcon{
		body: body,
		hash: HashIconBytes(body),
	}
}

// Bytes returns the fallback image. Callers must not modify it.
func (f FallbackIcon) Bytes() []byte {
	return f.body
}

// Hash returns the precomputed digest of the fallback image.
func (f FallbackIcon) Hash() string {
	return f.hash
}
