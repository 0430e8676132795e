package models

import "time"

const (
	EnrollmentPending   = "pending"
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentCancelled = "cancelled"
)

func IsValidEnrollmentStatus(status string) bool {
	switch status {
	case EnrollmentPending, EnrollmentActive, EnrollmentCompleted, EnrollmentCancelled:
		return true
	default:
		return false
	}
}

type Enrollment struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"not null;uniqueIndex:uidx_enrollment_user_level" json:"user_id"`
	User               *User          `json:"user,omitempty"`
	CourseLevelID      uint           `gorm:"not null;uniqueIndex:uidx_enrollment_user_level" json:"course_level_id"`
	CourseLevel        *CourseLevel   `json:"course_level,omitempty"`
	Status             string         `gorm:"not null;default:pending" json:"status"`
	ProgressPercentage int            `gorm:"not null;default:0" json:"progress_percentage"`
	ClassScheduleID    *uint          `json:"class_schedule_id"`
	ClassSchedule      *ClassSchedule `json:"class_schedule,omitempty"`
	Certificate        *Certificate   `json:"certificate,omitempty"`
	EnrolledAt         time.Time      `gorm:"not null" json:"enrolled_at"`
	CompletedAt        *time.Time     `json:"completed_at"`
}

// Invoice is kept in the schema for billing integrations; no workflow writes it.
type Invoice struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	EnrollmentID  uint       `gorm:"not null;index" json:"enrollment_id"`
	InvoiceNumber string     `gorm:"uniqueIndex;not null" json:"invoice_number"`
	Amount        int64      `gorm:"not null" json:"amount"`
	Tax           int64      `gorm:"not null;default:0" json:"tax"`
	Total         int64      `gorm:"not null" json:"total"`
	Status        string     `gorm:"not null;default:pending" json:"status"`
	DueDate       time.Time  `gorm:"type:date" json:"due_date"`
	PaidAt        *time.Time `json:"paid_at"`
	CreatedAt     time.Time  `json:"created_at"`
}
