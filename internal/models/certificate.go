package models

import "time"

const (
	CertificatePending  = "pending"
	CertificateApproved = "approved"
	CertificateRejected = "rejected"
)

const CertificateNumberPrefix = "IFLA-"

type Certificate struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	EnrollmentID      uint        `gorm:"not null;uniqueIndex" json:"enrollment_id"`
	Enrollment        *Enrollment `json:"enrollment,omitempty"`
	CertificateNumber string      `gorm:"not null;uniqueIndex" json:"certificate_number"`
	Status            string      `gorm:"not null;default:pending" json:"status"`
	ApprovedByID      *uint       `json:"approved_by_id"`
	FilePath          string      `json:"file_path"`
	IssuedAt          time.Time   `gorm:"not null" json:"issued_at"`
	ApprovedAt        *time.Time  `json:"approved_at"`
	RejectedAt        *time.Time  `json:"rejected_at"`
}
