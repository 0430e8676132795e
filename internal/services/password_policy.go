package services

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	minPasswordLength      = 8
	minSimilarAttributeLen = 4
)

var (
	ErrWeakPassword    = fmt.Errorf("password must be at least 8 characters with upper, lower case and a digit: %w", ErrValidation)
	ErrCommonPassword  = fmt.Errorf("password is too common: %w", ErrValidation)
	ErrSimilarPassword = fmt.Errorf("password is too similar to your personal details: %w", ErrValidation)
)

// commonPasswords holds widely leaked passwords that still satisfy the character rules.
var commonPasswords = map[string]struct{}{
	"password1":   {},
	"password12":  {},
	"password123": {},
	"passw0rd":    {},
	"p@ssw0rd1":   {},
	"welcome1":    {},
	"welcome123":  {},
	"qwerty123":   {},
	"qwerty1234":  {},
	"abc12345":    {},
	"abcd1234":    {},
	"admin123":    {},
	"admin1234":   {},
	"letmein1":    {},
	"iloveyou1":   {},
	"football1":   {},
	"sunshine1":   {},
	"princess1":   {},
	"monkey123":   {},
	"changeme1":   {},
}

func ValidatePasswordStrength(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return ErrWeakPassword
	}

	var hasUpper, hasLower, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return ErrWeakPassword
	}

	if _, common := commonPasswords[strings.ToLower(password)]; common {
		return ErrCommonPassword
	}
	return nil
}

// ValidatePasswordFor applies the strength rules and rejects passwords built around the
// account's own details. Emails contribute their local part.
func ValidatePasswordFor(password string, attributes ...string) error {
	if err := ValidatePasswordStrength(password); err != nil {
		return err
	}

	lowered := strings.ToLower(password)
	for _, attribute := range attributes {
		attribute = strings.ToLower(strings.TrimSpace(attribute))
		if local, _, isEmail := strings.Cut(attribute, "@"); isEmail {
			attribute = local
		}
		if len(attribute) < minSimilarAttributeLen {
			continue
		}
		if strings.Contains(lowered, attribute) || strings.Contains(attribute, lowered) {
			return ErrSimilarPassword
		}
	}
	return nil
}
