package usersvc

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)

	// Compare returns domain.ErrInvalidCredentials if password does not match hash.
	Compare(hash []byte, password string) error
}

// BcryptPasswordHasher implements PasswordHasher with bcrypt.
type BcryptPasswordHasher struct {
	cost int
}

var _ PasswordHasher = (*BcryptPasswordHasher)(nil)

// NewBcryptPasswordHasher creates a BcryptPasswordHasher. Costs below bcrypt.MinCost are raised to it.
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	return &BcryptPasswordHasher{cost: max(cost, bcrypt.MinCost)}
}

func (h *BcryptPasswordHasher) Hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return nil, fmt.Errorf("generate from password: %w", err)
	}

	return hash, nil
}

func (h *BcryptPasswordHasher) Compare(hash []byte, password string) error {
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return domain.ErrInvalidCredentials
	default:
		return fmt.Errorf("compare hash and password: %w", err)
	}
}
