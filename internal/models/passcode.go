package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PasscodeLength      = 6
	PasscodeTTL         = 10 * time.Minute
	PasscodeMaxAttempts = 5
)

// PendingRegistration is the signup payload held until the email is proven.
// PasswordHash is already bcrypt-hashed.
type PendingRegistration struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

type Passcode struct {
	ID            uint      `gorm:"primaryKey"`
	Email         string    `gorm:"not null;index"`
	CodeHash      string    `gorm:"not null"`
	CodeSalt      string    `gorm:"not null"`
	ExpiresAt     time.Time `gorm:"not null"`
	ConsumedAt    *time.Time
	InvalidatedAt *time.Time
	AttemptCount  int                                     `gorm:"not null;default:0"`
	MaxAttempts   int                                     `gorm:"not null;default:5"`
	Registration  datatypes.JSONType[PendingRegistration] `gorm:"column:registration"`
	LastSentAt    time.Time                               `gorm:"not null"`
	CreatedAt     time.Time                               `gorm:"not null"`
}

func (Passcode) TableName() string {
	return "passcodes"
}

func (record *Passcode) IsConsumed() bool {
	return record.ConsumedAt != nil
}

func (record *Passcode) IsExpired(now time.Time) bool {
	return now.After(record.ExpiresAt)
}

func (record *Passcode) AttemptsExhausted() bool {
	limit := record.MaxAttempts
	if limit <= 0 {
		limit = PasscodeMaxAttempts
	}
	return record.AttemptCount >= limit
}

func (record *Passcode) HasRegistration() bool {
	return record.Registration.Data().PasswordHash != ""
}
