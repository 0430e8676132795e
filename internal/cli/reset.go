package cli

import (
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/security"
	"github.com/terraincognita07/ifla/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RunResetPasswordCommand replaces the password of the account with email. Without a
// password source a temporary password is generated and printed.
func RunResetPasswordCommand(database *gorm.DB, email string, source PasswordSource, out io.Writer) error {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	if normalizedEmail == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(normalizedEmail); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}

	users := db.NewUserRepository(database)
	user, err := users.FindByNormalizedEmail(normalizedEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %s not found", normalizedEmail)
		}
		return fmt.Errorf("load user: %w", err)
	}

	password, temporary, err := choosePassword(source)
	if err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := users.UpdatePassword(user.ID, string(passwordHash)); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}

	fmt.Fprintf(out, "Password reset for %s\n", user.Email)
	if temporary {
		fmt.Fprintf(out, "Temporary password: %s\n", password)
	}
	return nil
}

// choosePassword reads from source, or generates a temporary password when source is nil.
func choosePassword(source PasswordSource) (string, bool, error) {
	if source == nil {
		password, err := security.TemporaryPassword(12)
		if err != nil {
			return "", false, fmt.Errorf("generate temporary password: %w", err)
		}
		return password, true, nil
	}

	password, err := source()
	if err != nil {
		return "", false, err
	}
	if err := services.ValidatePasswordStrength(password); err != nil {
		return "", false, err
	}
	return password, false, nil
}
