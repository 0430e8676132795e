package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/terraincognita07/ifla/internal/models"
	"github.com/terraincognita07/ifla/internal/notify"
)

type ContactRepository interface {
	Create(message *models.ContactMessage) error
	List(unreadOnly bool) ([]models.ContactMessage, error)
	MarkRead(messageID uint) (bool, error)
}

type ContactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=20"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type ContactService struct {
	contacts   ContactRepository
	sender     notify.Sender
	adminEmail string
	now        func() time.Time
}

func NewContactService(contacts ContactRepository, sender notify.Sender, adminEmail string) *ContactService {
	return &ContactService{
		contacts:   contacts,
		sender:     sender,
		adminEmail: strings.TrimSpace(adminEmail),
		now:        time.Now,
	}
}

// Submit stores the message and forwards it to the school inbox. Forwarding is best effort.
func (service *ContactService) Submit(ctx context.Context, input ContactInput) (models.ContactMessage, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Message = strings.TrimSpace(input.Message)
	if err := ValidateStruct(input); err != nil {
		return models.ContactMessage{}, err
	}

	message := models.ContactMessage{
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Subject:   input.Subject,
		Message:   input.Message,
		CreatedAt: service.now().UTC(),
	}
	if err := service.contacts.Create(&message); err != nil {
		return models.ContactMessage{}, err
	}

	if service.sender != nil && service.adminEmail != "" {
		mail := notify.ContactMessage(service.adminEmail, message.Name, message.Email, message.Phone, message.Subject, message.Message)
		if err := service.sender.Send(ctx, mail); err != nil {
			log.Printf("contact: forward message %d failed: %v", message.ID, err)
		}
	}
	return message, nil
}

func (service *ContactService) List(unreadOnly bool) ([]models.ContactMessage, error) {
	return service.contacts.List(unreadOnly)
}

func (service *ContactService) MarkRead(messageID uint) error {
	updated, err := service.contacts.MarkRead(messageID)
	if err != nil {
		return err
	}
	if !updated {
		return ErrContactNotFound
	}
	return nil
}
