package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost matches what existing hashes in the users table were written with.
const Cost = 12

var ErrInvalidCredentials = errors.New("invalid email or password")

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password. Any mismatch
// or malformed hash reports ErrInvalidCredentials.
func CheckPassword(hash, plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Hasher adapts the package functions to the identity service.
type Hasher struct{}

func (Hasher) Hash(plain string) (string, error) { return HashPassword(plain) }

func (Hasher) Compare(hash, plain string) error { return CheckPassword(hash, plain) }
