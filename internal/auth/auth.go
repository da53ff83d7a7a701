// Package auth contains handlers, services and models used to manage the identity of the
// portal users, their authentication and authorization.
package auth

import (
	"errors"
	"fmt"

	"clinic-portal/internal/apierrors"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost is the bcrypt work factor of stored passwords.
const passwordCost = bcrypt.DefaultCost

// EncryptPassword hashes the password for storage.
func EncryptPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apierrors.NewValidationError("password", "must be at most 72 bytes long")
	}
	if err != nil {
		return "", fmt.Errorf("could not hash the password: %w", err)
	}
	return string(hash), nil
}

// ComparePasswords reports whether plain matches the stored hash. An empty hash never matches.
func ComparePasswords(hashed, plain string) bool {
	return hashed != "" && bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
