package services

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var (
	ErrAuthCredentialsInvalid = fmt.Errorf("email and password are required: %w", ErrValidation)
	ErrUsernameInvalid        = fmt.Errorf("username may contain letters, digits and . _ + - only: %w", ErrValidation)
	ErrPasscodeFormat         = fmt.Errorf("verification code must be 6 digits: %w", ErrValidation)
)

var (
	usernameFormatRegex = regexp.MustCompile(`^[a-z0-9._+-]{3,150}$`)
	passcodeFormatRegex = regexp.MustCompile(`^[0-9]{6}$`)
	usernameStripRegex  = regexp.MustCompile(`[^a-z0-9._+-]`)
)

func NormalizeAuthEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ""
	}
	return email
}

func NormalizeCredentialsInput(emailRaw string, passwordRaw string) (string, string, error) {
	email := NormalizeAuthEmail(emailRaw)
	password := strings.TrimSpace(passwordRaw)
	if email == "" || password == "" {
		return "", "", ErrAuthCredentialsInvalid
	}
	return email, password, nil
}

// NormalizeUsername lowercases the username, falling back to the email local-part when blank.
func NormalizeUsername(raw string, email string) (string, error) {
	username := strings.ToLower(strings.TrimSpace(raw))
	if username == "" {
		username = UsernameFromEmail(email)
	}
	if !usernameFormatRegex.MatchString(username) {
		return "", ErrUsernameInvalid
	}
	return username, nil
}

func UsernameFromEmail(email string) string {
	localPart, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(email)), "@")
	localPart = usernameStripRegex.ReplaceAllString(localPart, "")
	for len(localPart) < 3 && localPart != "" {
		localPart += "_"
	}
	return localPart
}

func NormalizePasscodeInput(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if !passcodeFormatRegex.MatchString(code) {
		return "", ErrPasscodeFormat
	}
	return code, nil
}
