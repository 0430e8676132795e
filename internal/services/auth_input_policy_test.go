package services

import (
	"errors"
	"testing"
)

func TestNormalizeAuthEmail(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "normalizes case and spaces", raw: " USER@EXAMPLE.COM ", want: "user@example.com"},
		{name: "invalid email returns empty", raw: "not-email", want: ""},
		{name: "empty returns empty", raw: "   ", want: ""},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			if got := NormalizeAuthEmail(testCase.raw); got != testCase.want {
				t.Fatalf("NormalizeAuthEmail(%q) = %q, want %q", testCase.raw, got, testCase.want)
			}
		})
	}
}

func TestNormalizeCredentialsInput(t *testing.T) {
	email, password, err := NormalizeCredentialsInput(" USER@EXAMPLE.COM ", "  StrongPass1  ")
	if err != nil {
		t.Fatalf("expected valid credentials input, got %v", err)
	}
	if email != "user@example.com" {
		t.Fatalf("expected normalized email, got %q", email)
	}
	if password != "StrongPass1" {
		t.Fatalf("expected trimmed password, got %q", password)
	}

	_, _, err = NormalizeCredentialsInput("not-email", "StrongPass1")
	if !errors.Is(err, ErrAuthCredentialsInvalid) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrAuthCredentialsInvalid for invalid email, got %v", err)
	}

	_, _, err = NormalizeCredentialsInput("user@example.com", " ")
	if !errors.Is(err, ErrAuthCredentialsInvalid) {
		t.Fatalf("expected ErrAuthCredentialsInvalid for empty password, got %v", err)
	}
}

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		email   string
		want    string
		wantErr bool
	}{
		{name: "explicit username is lowercased", raw: " Asha.V ", email: "asha@example.com", want: "asha.v"},
		{name: "blank falls back to local part", raw: "", email: "Ravi.Kumar@example.com", want: "ravi.kumar"},
		{name: "short local part is padded", raw: "", email: "jo@example.com", want: "jo_"},
		{name: "spaces are rejected", raw: "two words", email: "x@example.com", wantErr: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := NormalizeUsername(testCase.raw, testCase.email)
			if testCase.wantErr {
				if !errors.Is(err, ErrUsernameInvalid) {
					t.Fatalf("expected ErrUsernameInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != testCase.want {
				t.Fatalf("NormalizeUsername(%q, %q) = %q, want %q", testCase.raw, testCase.email, got, testCase.want)
			}
		})
	}
}

func TestNormalizePasscodeInput(t *testing.T) {
	if code, err := NormalizePasscodeInput(" 012345 "); err != nil || code != "012345" {
		t.Fatalf("expected valid code, got %q (%v)", code, err)
	}
	for _, raw := range []string{"12345", "1234567", "12a456", ""} {
		if _, err := NormalizePasscodeInput(raw); !errors.Is(err, ErrPasscodeFormat) {
			t.Fatalf("expected ErrPasscodeFormat for %q, got %v", raw, err)
		}
	}
}
