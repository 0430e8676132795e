package db

import (
	"github.com/terraincognita07/ifla/internal/models"
	"gorm.io/gorm"
)

type PaymentEventRepository struct {
	database *gorm.DB
}

func NewPaymentEventRepository(database *gorm.DB) *PaymentEventRepository {
	return &PaymentEventRepository{database: database}
}

func (repo *PaymentEventRepository) Create(event *models.PaymentGatewayEvent) error {
	return repo.database.Create(event).Error
}

func (repo *PaymentEventRepository) MarkOutcome(eventID uint, status string, applicationID *uint, message string) error {
	updates := map[string]any{
		"status":  status,
		"message": message,
	}
	if applicationID != nil {
		updates["application_id"] = *applicationID
	}
	return repo.database.Model(&models.PaymentGatewayEvent{}).Where("id = ?", eventID).Updates(updates).Error
}

func (repo *PaymentEventRepository) ListByOrder(orderID string) ([]models.PaymentGatewayEvent, error) {
	events := make([]models.PaymentGatewayEvent, 0)
	if err := repo.database.
		Where("order_id = ?", orderID).
		Order("received_at ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
