package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"bilancio/internal/core"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores input beyond 72 bytes.
	MaxPasswordLength = 72
)

var ErrWeakPassword = fmt.Errorf("%w: password must be between %d and %d characters", core.ErrValidation, MinPasswordLength, MaxPasswordLength)

// HashPassword validates and hashes a plaintext password.
func HashPassword(password string, cost int) ([]byte, error) {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return nil, ErrWeakPassword
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash []byte, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}
