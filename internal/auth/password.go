// Package auth hashes and checks account passwords.
package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmptyCredentials is returned when a username or password is blank.
	ErrEmptyCredentials = errors.New("username and password are required")
	// ErrMismatch is returned by CheckPassword for a wrong password.
	ErrMismatch = errors.New("invalid username or password")
)

// Cost is the bcrypt work factor. Tests lower it.
var Cost = bcrypt.DefaultCost

// ValidateCredentials rejects blank usernames and passwords.
func ValidateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrEmptyCredentials
	}
	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyCredentials
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword compares password against a stored hash.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
