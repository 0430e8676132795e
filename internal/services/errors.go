package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Category errors. Every specific service error wraps exactly one of them.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrAuthorization   = errors.New("not authorized")
	ErrExternalService = errors.New("external service failed")
)

var (
	ErrPasscodeNotFound         = fmt.Errorf("invalid verification code: %w", ErrValidation)
	ErrPasscodeMismatch         = fmt.Errorf("verification code does not match: %w", ErrValidation)
	ErrPasscodeExpired          = fmt.Errorf("verification code expired: %w", ErrValidation)
	ErrPasscodeSuperseded       = fmt.Errorf("verification code was replaced by a newer one: %w", ErrValidation)
	ErrPasscodeAlreadyUsed      = fmt.Errorf("verification code already used: %w", ErrConflict)
	ErrPasscodeAttemptsExceeded = fmt.Errorf("too many verification attempts: %w", ErrAuthorization)
	ErrNoPendingRegistration    = fmt.Errorf("no pending registration for email: %w", ErrNotFound)

	ErrEmailTaken    = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrUsernameTaken = fmt.Errorf("username already taken: %w", ErrConflict)

	ErrUserNotFound         = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrUserInactive         = fmt.Errorf("account is deactivated: %w", ErrAuthorization)
	ErrInvalidCredentials   = fmt.Errorf("invalid email or password: %w", ErrAuthorization)
	ErrStaffOnly            = fmt.Errorf("staff access required: %w", ErrAuthorization)
	ErrCannotDeactivateSelf = fmt.Errorf("cannot deactivate your own account: %w", ErrConflict)

	ErrLanguageNotFound = fmt.Errorf("language not found: %w", ErrNotFound)
	ErrLevelNotFound    = fmt.Errorf("course level not found: %w", ErrNotFound)
	ErrScheduleNotFound = fmt.Errorf("class schedule not found: %w", ErrNotFound)
	ErrLanguageExists   = fmt.Errorf("language already exists: %w", ErrConflict)
	ErrLevelExists      = fmt.Errorf("level already exists for this language: %w", ErrConflict)

	ErrApplicationNotFound = fmt.Errorf("application not found: %w", ErrNotFound)
	ErrApplicationNotOwned = fmt.Errorf("application belongs to another user: %w", ErrAuthorization)
	ErrAlreadyPaid         = fmt.Errorf("application is already paid: %w", ErrConflict)
	ErrInvalidNotification = fmt.Errorf("gateway notification signature invalid: %w", ErrAuthorization)
	ErrPaymentGateway      = fmt.Errorf("payment gateway unavailable: %w", ErrExternalService)
	ErrInvalidStatus       = fmt.Errorf("unknown status: %w", ErrValidation)

	ErrEnrollmentNotFound = fmt.Errorf("enrollment not found: %w", ErrNotFound)
	ErrAlreadyEnrolled    = fmt.Errorf("already enrolled in this level: %w", ErrConflict)
	ErrScheduleMismatch   = fmt.Errorf("schedule belongs to another level: %w", ErrValidation)

	ErrCertificateNotFound    = fmt.Errorf("certificate not found: %w", ErrNotFound)
	ErrCertificateNotApproved = fmt.Errorf("certificate is not approved: %w", ErrConflict)
	ErrCertificateNotOwned    = fmt.Errorf("certificate belongs to another user: %w", ErrAuthorization)
	ErrCertificateUnavailable = fmt.Errorf("certificate document unavailable: %w", ErrNotFound)
	ErrCertificateNumbers     = fmt.Errorf("could not allocate certificate number: %w", ErrConflict)

	ErrContactNotFound = fmt.Errorf("contact message not found: %w", ErrNotFound)
)

// ValidationError carries per-field messages for user-correctable input problems.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (validationErr *ValidationError) Add(field string, message string) {
	if validationErr.Fields == nil {
		validationErr.Fields = map[string]string{}
	}
	if _, exists := validationErr.Fields[field]; exists {
		return
	}
	validationErr.Fields[field] = message
}

func (validationErr *ValidationError) Empty() bool {
	return len(validationErr.Fields) == 0
}

// OrNil returns the receiver as an error only when it holds field messages.
func (validationErr *ValidationError) OrNil() error {
	if validationErr == nil || validationErr.Empty() {
		return nil
	}
	return validationErr
}

func (validationErr *ValidationError) Error() string {
	fields := make([]string, 0, len(validationErr.Fields))
	for field := range validationErr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+validationErr.Fields[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (validationErr *ValidationError) Unwrap() error {
	return ErrValidation
}

func fieldError(field string, message string) error {
	validationErr := NewValidationError()
	validationErr.Add(field, message)
	return validationErr
}

// RenderFailure reports that a committed certificate approval has no document yet.
type RenderFailure struct {
	CertificateID uint
	Cause         error
}

func (failure *RenderFailure) Error() string {
	return fmt.Sprintf("certificate %d approved but document rendering failed: %v", failure.CertificateID, failure.Cause)
}

func (failure *RenderFailure) Unwrap() []error {
	return []error{ErrExternalService, failure.Cause}
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
