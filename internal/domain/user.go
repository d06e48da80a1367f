package domain

import "errors"

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an existing name.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the name/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrReservedUsername is returned when registering a name the platform keeps for itself.
	ErrReservedUsername = errors.New("username is reserved")
)

// ReservedUsername is the account name used by the platform itself.
const ReservedUsername = "pipe"

// User represents a registered streamer or viewer.
type User struct {
	ID           int64  // Unique identifier
	Name         string // Login name, unique
	DisplayName  string // Name shown on the profile
	Description  string // Free-form profile text
	PasswordHash []byte // Hashed password
	DarkMode     bool   // Theme preference
}
