package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/models"
	"github.com/terraincognita07/ifla/internal/notify"
	"github.com/terraincognita07/ifla/internal/security"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

const passcodeSaltLength = 16

type PasscodeRepository interface {
	ReplaceActive(record *models.Passcode, now time.Time) error
	FindLatestActive(email string) (models.Passcode, error)
	ListInvalidated(email string) ([]models.Passcode, error)
	Refresh(record *models.Passcode) error
	IncrementAttempts(recordID uint) error
	ConsumeAndCreateUser(recordID uint, user *models.User, now time.Time) error
}

type PasscodeUserLookup interface {
	ExistsByNormalizedEmail(email string) (bool, error)
	ExistsByUsername(username string) (bool, error)
}

// SignupInput is the registration form submitted before the email is proven.
type SignupInput struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
}

type PasscodeService struct {
	passcodes PasscodeRepository
	users     PasscodeUserLookup
	sender    notify.Sender
	now       func() time.Time
	newCode   func() (string, error)
}

func NewPasscodeService(passcodes PasscodeRepository, users PasscodeUserLookup, sender notify.Sender) *PasscodeService {
	return &PasscodeService{
		passcodes: passcodes,
		users:     users,
		sender:    sender,
		now:       time.Now,
		newCode:   generatePasscode,
	}
}

// IssuePasscode stores the pending registration behind a fresh code and mails the code.
// Every earlier open code for the email stops working.
func (service *PasscodeService) IssuePasscode(ctx context.Context, emailRaw string, input SignupInput) error {
	email := NormalizeAuthEmail(emailRaw)
	if email == "" {
		return fieldError("email", "enter a valid email address")
	}

	exists, err := service.users.ExistsByNormalizedEmail(email)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailTaken
	}

	username, err := NormalizeUsername(input.Username, email)
	if err != nil {
		return err
	}
	taken, err := service.users.ExistsByUsername(username)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}

	if err := ValidatePasswordFor(input.Password, email, username, input.FirstName, input.LastName); err != nil {
		return err
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	code, err := service.newCode()
	if err != nil {
		return err
	}
	salt, err := security.RandomString(passcodeSaltLength, security.SaltSymbols)
	if err != nil {
		return err
	}

	now := service.now().UTC()
	record := models.Passcode{
		Email:       email,
		CodeHash:    hashPasscode(salt, code),
		CodeSalt:    salt,
		ExpiresAt:   now.Add(models.PasscodeTTL),
		MaxAttempts: models.PasscodeMaxAttempts,
		LastSentAt:  now,
		CreatedAt:   now,
	}
	record.Registration = datatypes.NewJSONType(models.PendingRegistration{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Username:     username,
		PasswordHash: string(passwordHash),
	})
	if err := service.passcodes.ReplaceActive(&record, now); err != nil {
		return err
	}

	service.dispatch(ctx, email, code)
	return nil
}

// ResendPasscode rotates the code of the open registration for the email and mails it again.
func (service *PasscodeService) ResendPasscode(ctx context.Context, emailRaw string) error {
	email := NormalizeAuthEmail(emailRaw)
	if email == "" {
		return fieldError("email", "enter a valid email address")
	}

	exists, err := service.users.ExistsByNormalizedEmail(email)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailTaken
	}

	record, err := service.passcodes.FindLatestActive(email)
	if err != nil {
		if isRecordNotFound(err) {
			return ErrNoPendingRegistration
		}
		return err
	}
	if record.IsConsumed() || !record.HasRegistration() {
		return ErrNoPendingRegistration
	}

	code, err := service.newCode()
	if err != nil {
		return err
	}
	salt, err := security.RandomString(passcodeSaltLength, security.SaltSymbols)
	if err != nil {
		return err
	}

	now := service.now().UTC()
	record.CodeSalt = salt
	record.CodeHash = hashPasscode(salt, code)
	record.ExpiresAt = now.Add(models.PasscodeTTL)
	record.LastSentAt = now
	record.CreatedAt = now
	if err := service.passcodes.Refresh(&record); err != nil {
		if errors.Is(err, db.ErrAlreadyConsumed) {
			return ErrNoPendingRegistration
		}
		return err
	}

	service.dispatch(ctx, email, code)
	return nil
}

// VerifyAndCreate checks the code against the newest open record and, on a match,
// consumes it and creates the verified student account in one step.
func (service *PasscodeService) VerifyAndCreate(emailRaw string, codeRaw string) (models.User, error) {
	email := NormalizeAuthEmail(emailRaw)
	if email == "" {
		return models.User{}, fieldError("email", "enter a valid email address")
	}
	code, err := NormalizePasscodeInput(codeRaw)
	if err != nil {
		return models.User{}, err
	}

	record, err := service.passcodes.FindLatestActive(email)
	if err != nil {
		if isRecordNotFound(err) {
			return models.User{}, ErrPasscodeNotFound
		}
		return models.User{}, err
	}

	now := service.now().UTC()
	switch {
	case record.IsConsumed():
		return models.User{}, ErrPasscodeAlreadyUsed
	case record.IsExpired(now):
		return models.User{}, ErrPasscodeExpired
	case record.AttemptsExhausted():
		return models.User{}, ErrPasscodeAttemptsExceeded
	}

	if !passcodeMatches(record, code) {
		return models.User{}, service.rejectCode(record, email, code)
	}
	if !record.HasRegistration() {
		return models.User{}, ErrNoPendingRegistration
	}

	registration := record.Registration.Data()
	user := models.User{
		Email:        email,
		Username:     registration.Username,
		PasswordHash: registration.PasswordHash,
		FirstName:    registration.FirstName,
		LastName:     registration.LastName,
		IsVerified:   true,
		IsStudent:    true,
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := service.passcodes.ConsumeAndCreateUser(record.ID, &user, now); err != nil {
		switch {
		case errors.Is(err, db.ErrAlreadyConsumed):
			return models.User{}, ErrPasscodeAlreadyUsed
		case errors.Is(err, db.ErrEmailTaken):
			return models.User{}, ErrEmailTaken
		case db.IsUniqueViolation(err):
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, err
	}
	return user, nil
}

func (service *PasscodeService) rejectCode(record models.Passcode, email string, code string) error {
	invalidated, err := service.passcodes.ListInvalidated(email)
	if err != nil {
		return err
	}
	for _, previous := range invalidated {
		if passcodeMatches(previous, code) {
			return ErrPasscodeSuperseded
		}
	}

	if err := service.passcodes.IncrementAttempts(record.ID); err != nil {
		return err
	}
	return ErrPasscodeMismatch
}

func (service *PasscodeService) dispatch(ctx context.Context, email string, code string) {
	if service.sender == nil {
		log.Printf("passcode: no sender configured, code for %s not delivered", email)
		return
	}
	message := notify.PasscodeMessage(email, code, int(models.PasscodeTTL/time.Minute))
	if err := service.sender.Send(ctx, message); err != nil {
		log.Printf("passcode: send to %s failed: %v", email, err)
	}
}

func generatePasscode() (string, error) {
	return security.NumericCode(models.PasscodeLength)
}

func hashPasscode(salt string, code string) string {
	sum := sha256.Sum256([]byte(salt + code))
	return hex.EncodeToString(sum[:])
}

func passcodeMatches(record models.Passcode, code string) bool {
	expected := hashPasscode(record.CodeSalt, code)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(record.CodeHash)) == 1
}
