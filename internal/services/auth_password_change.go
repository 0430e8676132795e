package services

import (
	"fmt"
	"strings"

	"github.com/terraincognita07/ifla/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordChangeInvalidInput = fmt.Errorf("current, new and confirmation passwords are required: %w", ErrValidation)
	ErrPasswordConfirmMismatch    = fmt.Errorf("new password and confirmation differ: %w", ErrValidation)
	ErrInvalidCurrentPassword     = fmt.Errorf("current password is incorrect: %w", ErrValidation)
	ErrNewPasswordMustDiffer      = fmt.Errorf("new password must differ from the current one: %w", ErrValidation)
)

type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

// ValidatePasswordChange checks the change against the stored hash. attributes are the
// account details the new password must not resemble.
func ValidatePasswordChange(passwordHash string, change PasswordChange, attributes ...string) error {
	current := strings.TrimSpace(change.Current)
	next := strings.TrimSpace(change.New)
	confirm := strings.TrimSpace(change.Confirm)

	if current == "" || next == "" || confirm == "" {
		return ErrPasswordChangeInvalidInput
	}
	if next != confirm {
		return ErrPasswordConfirmMismatch
	}
	if strings.TrimSpace(passwordHash) == "" || bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(current)) != nil {
		return ErrInvalidCurrentPassword
	}
	if current == next {
		return ErrNewPasswordMustDiffer
	}
	return ValidatePasswordFor(next, attributes...)
}

// ChangePassword replaces the password of a signed-in user after checking the current one.
// Accounts created through Google have no password and cannot use it.
func (service *AuthService) ChangePassword(user models.User, change PasswordChange) error {
	stored, err := service.FindByID(user.ID)
	if err != nil {
		return err
	}
	if err := ValidatePasswordChange(stored.PasswordHash, change, stored.Email, stored.Username, stored.FirstName, stored.LastName); err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(change.New)), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return service.users.UpdateByID(user.ID, map[string]any{"password_hash": string(passwordHash)})
}
