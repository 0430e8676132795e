package db

import (
	"time"

	"github.com/terraincognita07/ifla/internal/models"
	"gorm.io/gorm"
)

type PasscodeRepository struct {
	database *gorm.DB
}

func NewPasscodeRepository(database *gorm.DB) *PasscodeRepository {
	return &PasscodeRepository{database: database}
}

// ReplaceActive invalidates every open record for the email and stores the new one atomically.
func (repo *PasscodeRepository) ReplaceActive(record *models.Passcode, now time.Time) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Passcode{}).
			Where("email = ? AND consumed_at IS NULL AND invalidated_at IS NULL", record.Email).
			Update("invalidated_at", now).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
}

func (repo *PasscodeRepository) FindLatestActive(email string) (models.Passcode, error) {
	var record models.Passcode
	if err := repo.database.
		Where("email = ? AND invalidated_at IS NULL", email).
		Order("created_at DESC, id DESC").
		First(&record).Error; err != nil {
		return models.Passcode{}, err
	}
	return record, nil
}

func (repo *PasscodeRepository) ListInvalidated(email string) ([]models.Passcode, error) {
	records := make([]models.Passcode, 0)
	if err := repo.database.
		Where("email = ? AND invalidated_at IS NOT NULL AND consumed_at IS NULL", email).
		Order("created_at DESC, id DESC").
		Limit(10).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Refresh rewrites the code material of an open record in place.
func (repo *PasscodeRepository) Refresh(record *models.Passcode) error {
	result := repo.database.Model(&models.Passcode{}).
		Where("id = ? AND consumed_at IS NULL AND invalidated_at IS NULL", record.ID).
		Updates(map[string]any{
			"code_hash":     record.CodeHash,
			"code_salt":     record.CodeSalt,
			"expires_at":    record.ExpiresAt,
			"attempt_count": 0,
			"last_sent_at":  record.LastSentAt,
			"created_at":    record.CreatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyConsumed
	}
	record.AttemptCount = 0
	return nil
}

func (repo *PasscodeRepository) IncrementAttempts(recordID uint) error {
	return repo.database.Model(&models.Passcode{}).
		Where("id = ?", recordID).
		Update("attempt_count", gorm.Expr("attempt_count + 1")).Error
}

// ConsumeAndCreateUser marks the record consumed and materializes the user in one transaction.
// The conditional update is the single authority on whether the record was still open.
func (repo *PasscodeRepository) ConsumeAndCreateUser(recordID uint, user *models.User, now time.Time) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Passcode{}).
			Where("id = ? AND consumed_at IS NULL AND invalidated_at IS NULL", recordID).
			Update("consumed_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyConsumed
		}

		var existing int64
		if err := tx.Model(&models.User{}).
			Where("lower(trim(email)) = ?", user.Email).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrEmailTaken
		}

		return tx.Create(user).Error
	})
}
