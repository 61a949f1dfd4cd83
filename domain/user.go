package domain

import (
	"errors"
	"time"
)

// DefaultImageFile is the profile picture assigned to new accounts.
const DefaultImageFile = "default.jpg"

// User is a registered account. The password is stored only as a bcrypt
// hash; the plaintext never leaves the auth usecase.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	ImageFile    string
	CreatedAt    time.Time
}

func NewUser(username, email, passwordHash string) (*User, error) {
	if username == "" {
		return nil, errors.New("username cannot be empty")
	}
	if len(username) > 20 {
		return nil, errors.New("username too long")
	}
	if email == "" {
		return nil, errors.New("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, errors.New("password hash cannot be empty")
	}

	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		ImageFile:    DefaultImageFile,
	}, nil
}
