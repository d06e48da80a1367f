package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrIconDecode is returned when an uploaded icon payload is not valid base64.
	ErrIconDecode = errors.New("icon decode failed")
	// ErrIconStorageWrite is returned when an icon could not be persisted.
	ErrIconStorageWrite = errors.New("icon storage write failed")
	// ErrIconStorageRead is returned when an icon exists but could not be read.
	ErrIconStorageRead = errors.New("icon storage read failed")
)

// IconMIMEType is the content type icons are served with.
const IconMIMEType = "image/jpeg"

// Icon is the profile image of a single user. The body is opaque.
type Icon struct {
	UserID int64
	Body   []byte
}

// NewIcon creates a new Icon owned by the given user.
func NewIcon(userID int64, body []byte) *Icon {
	return &Icon{
		UserID: userID,
		Body:   body,
	}
}

// Size returns the size of the icon in bytes.
func (icon *Icon) Size() int64 {
	return int64(len(icon.Body))
}

// Bytes returns the icon's content as a byte slice.
func (icon *Icon) Bytes() []byte {
	return icon.Body
}

// Hash returns the lowercase hex SHA-256 digest of the icon's content.
func (icon *Icon) Hash() string {
	return HashIconBytes(icon.Body)
}

// WriteTo writes the icon's content to the given writer.
func (icon *Icon) WriteTo(writer io.Writer) (int64, error) {
	n, err := io.Copy(writer, bytes.NewReader(icon.Body))
	if err != nil {
		return n, fmt.Errorf("write: %w", err)
	}

	return n, nil
}

// ReadFrom replaces the icon's content with everything read from reader.
func (icon *Icon) ReadFrom(reader io.Reader) (int64, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return 0, fmt.Errorf("read all: %w", err)
	}

	icon.Body = body

	return int64(len(body)), nil
}

// HashIconBytes computes the digest used as icon_hash.
func HashIconBytes(body []byte) string {
	sum := sha256.Sum256(body)

	return hex.EncodeToString(sum[:])
}
