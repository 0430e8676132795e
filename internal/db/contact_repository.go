package db

import (
	"github.com/terraincognita07/ifla/internal/models"
	"gorm.io/gorm"
)

type ContactRepository struct {
	database *gorm.DB
}

func NewContactRepository(database *gorm.DB) *ContactRepository {
	return &ContactRepository{database: database}
}

func (repo *ContactRepository) Create(message *models.ContactMessage) error {
	return repo.database.Create(message).Error
}

func (repo *ContactRepository) List(unreadOnly bool) ([]models.ContactMessage, error) {
	query := repo.database.Model(&models.ContactMessage{})
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	messages := make([]models.ContactMessage, 0)
	if err := query.Order("created_at DESC, id DESC").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (repo *ContactRepository) MarkRead(messageID uint) (bool, error) {
	result := repo.database.Model(&models.ContactMessage{}).
		Where("id = ?", messageID).
		Update("is_read", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
