package db

import (
	"errors"
	"strings"
)

var (
	ErrAlreadyConsumed      = errors.New("record already consumed")
	ErrEmailTaken           = errors.New("email already registered")
	ErrNumberSpaceExhausted = errors.New("could not allocate a unique certificate number")
)

// IsUniqueViolation reports whether err comes from a unique index on either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint") ||
		strings.Contains(message, "duplicate key") ||
		strings.Contains(message, "sqlstate 23505")
}
