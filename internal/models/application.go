package models

import "time"

const (
	ApplicationDraft          = "draft"
	ApplicationSubmitted      = "submitted"
	ApplicationPaymentPending = "payment_pending"
	ApplicationApproved       = "approved"
	ApplicationRejected       = "rejected"
)

const (
	PaymentPending  = "pending"
	PaymentSuccess  = "success"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

const (
	ScheduleWeekday = "weekday"
	ScheduleWeekend = "weekend"
)

func IsValidApplicationStatus(status string) bool {
	switch status {
	case ApplicationDraft, ApplicationSubmitted, ApplicationPaymentPending, ApplicationApproved, ApplicationRejected:
		return true
	default:
		return false
	}
}

type Application struct {
	ID                     uint          `gorm:"primaryKey" json:"id"`
	UserID                 uint          `gorm:"not null;index" json:"user_id"`
	User                   *User         `json:"user,omitempty"`
	LanguageID             uint          `gorm:"not null;index" json:"language_id"`
	Language               *Language     `json:"language,omitempty"`
	Levels                 []CourseLevel `gorm:"many2many:application_levels;" json:"levels"`
	FullName               string        `gorm:"not null" json:"full_name"`
	DateOfBirth            time.Time     `gorm:"type:date;not null" json:"date_of_birth"`
	Phone                  string        `gorm:"not null" json:"phone"`
	Email                  string        `gorm:"not null" json:"email"`
	Address                string        `json:"address"`
	PhotoPath              string        `json:"photo_path"`
	IDDocumentPath         string        `gorm:"column:id_document_path" json:"id_document_path"`
	SignaturePath          string        `json:"signature_path"`
	TotalAmount            int64         `gorm:"not null;default:0" json:"total_amount"`
	Status                 string        `gorm:"not null;default:draft;index" json:"status"`
	GatewayOrderID         string        `gorm:"index" json:"gateway_order_id"`
	GatewayPaymentID       string        `json:"gateway_payment_id"`
	PaymentReference       string        `json:"payment_reference"`
	PaymentStatus          string        `gorm:"not null;default:pending" json:"payment_status"`
	PaidAt                 *time.Time    `json:"paid_at"`
	ApprovedWithoutPayment bool          `gorm:"not null;default:false" json:"approved_without_payment"`
	ScheduleType           string        `json:"schedule_type"`
	PreferredHour          string        `json:"preferred_hour"`
	SubmittedAt            *time.Time    `json:"submitted_at"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

// LevelsTotal sums the current prices of the attached levels.
func (application *Application) LevelsTotal() int64 {
	var total int64
	for _, level := range application.Levels {
		total += level.Price
	}
	return total
}
