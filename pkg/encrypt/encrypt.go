package encrypt

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt.DefaultCost = 10
const bcryptCost = bcrypt.DefaultCost

var (
	// ErrEmptySecret nothing to hash
	ErrEmptySecret = errors.New("secret is empty")
	// ErrSecretMismatch secret does not match the stored hash
	ErrSecretMismatch = errors.New("secret does not match")
)

// HashSecret hashes a one-time secret (sign-in link token) for storage
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hashed), nil
}

// CheckSecret 驗證 secret 是否匹配
func CheckSecret(hashed, secret string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret)); err != nil {
		return ErrSecretMismatch
	}
	return nil
}
