package services

import (
	"errors"
	"testing"

	"github.com/terraincognita07/ifla/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func TestValidatePasswordChange(t *testing.T) {
	hash := mustHashPassword(t, "StrongPass1")

	type testCase struct {
		name    string
		change  PasswordChange
		wantErr error
	}
	tests := []testCase{
		{name: "valid", change: PasswordChange{Current: "StrongPass1", New: "Stronger22", Confirm: "Stronger22"}},
		{name: "missing", change: PasswordChange{Current: "StrongPass1", New: "Stronger22"}, wantErr: ErrPasswordChangeInvalidInput},
		{name: "mismatch", change: PasswordChange{Current: "StrongPass1", New: "Stronger22", Confirm: "Stronger23"}, wantErr: ErrPasswordConfirmMismatch},
		{name: "wrong current", change: PasswordChange{Current: "WrongPass1", New: "Stronger22", Confirm: "Stronger22"}, wantErr: ErrInvalidCurrentPassword},
		{name: "unchanged", change: PasswordChange{Current: "StrongPass1", New: "StrongPass1", Confirm: "StrongPass1"}, wantErr: ErrNewPasswordMustDiffer},
		{name: "weak", change: PasswordChange{Current: "StrongPass1", New: "weakpass", Confirm: "weakpass"}, wantErr: ErrWeakPassword},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			err := ValidatePasswordChange(hash, testCase.change)
			if testCase.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidatePasswordChange() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, testCase.wantErr) {
				t.Fatalf("expected %v, got %v", testCase.wantErr, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestChangePasswordStoresNewHash(t *testing.T) {
	repo := &stubAuthUserRepo{users: []models.User{
		{ID: 1, Email: "asha@example.com", Username: "asha", PasswordHash: mustHashPassword(t, "StrongPass1"), IsActive: true},
		{ID: 2, Email: "google@example.com", Username: "google", IsActive: true},
	}}
	service := NewAuthService(repo, nil)

	err := service.ChangePassword(models.User{ID: 1}, PasswordChange{Current: "StrongPass1", New: "Stronger22", Confirm: "Stronger22"})
	if err != nil {
		t.Fatalf("ChangePassword() unexpected error: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(repo.users[0].PasswordHash), []byte("Stronger22")) != nil {
		t.Fatal("expected the new password hash to be stored")
	}

	err = service.ChangePassword(models.User{ID: 2}, PasswordChange{Current: "anything", New: "Stronger22", Confirm: "Stronger22"})
	if !errors.Is(err, ErrInvalidCurrentPassword) {
		t.Fatalf("expected passwordless account to be rejected, got %v", err)
	}
}
