package db

import (
	"errors"
	"time"

	"github.com/terraincognita07/ifla/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const certificateNumberAttempts = 8

// NumberGenerator yields candidate certificate numbers. Uniqueness is enforced by the store.
type NumberGenerator func() string

type CertificateRepository struct {
	database *gorm.DB
}

func NewCertificateRepository(database *gorm.DB) *CertificateRepository {
	return &CertificateRepository{database: database}
}

type CertificateFilter struct {
	Status string
	UserID uint
}

// CertificateDecision describes an approve or reject transition.
type CertificateDecision struct {
	Status     string
	ApproverID uint
	Now        time.Time
}

func (repo *CertificateRepository) FindByID(certificateID uint) (models.Certificate, error) {
	var certificate models.Certificate
	if err := preloadCertificateGraph(repo.database).First(&certificate, certificateID).Error; err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (repo *CertificateRepository) FindByEnrollment(enrollmentID uint) (models.Certificate, error) {
	var certificate models.Certificate
	if err := preloadCertificateGraph(repo.database).
		Where("enrollment_id = ?", enrollmentID).
		First(&certificate).Error; err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (repo *CertificateRepository) List(filter CertificateFilter) ([]models.Certificate, error) {
	query := preloadCertificateGraph(repo.database)
	if filter.Status != "" {
		query = query.Where("certificates.status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		query = query.
			Joins("JOIN enrollments ON enrollments.id = certificates.enrollment_id").
			Where("enrollments.user_id = ?", filter.UserID)
	}

	certificates := make([]models.Certificate, 0)
	if err := query.Order("certificates.issued_at DESC, certificates.id DESC").Find(&certificates).Error; err != nil {
		return nil, err
	}
	return certificates, nil
}

// Decide get-or-creates the certificate for the enrollment and applies the decision in one transaction.
func (repo *CertificateRepository) Decide(enrollmentID uint, decision CertificateDecision, next NumberGenerator) (models.Certificate, error) {
	var certificate models.Certificate
	err := repo.database.Transaction(func(tx *gorm.DB) error {
		var enrollment models.Enrollment
		if err := tx.First(&enrollment, enrollmentID).Error; err != nil {
			return err
		}

		ensured, err := ensureCertificate(tx, enrollment.ID, next, decision.Now)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"status":         decision.Status,
			"approved_by_id": decision.ApproverID,
		}
		switch decision.Status {
		case models.CertificateApproved:
			updates["approved_at"] = decision.Now
			updates["rejected_at"] = nil
		case models.CertificateRejected:
			updates["rejected_at"] = decision.Now
		}
		if err := tx.Model(&models.Certificate{}).Where("id = ?", ensured.ID).Updates(updates).Error; err != nil {
			return err
		}

		return tx.First(&certificate, ensured.ID).Error
	})
	if err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (repo *CertificateRepository) AttachFile(certificateID uint, filePath string) error {
	return repo.database.Model(&models.Certificate{}).
		Where("id = ?", certificateID).
		Update("file_path", filePath).Error
}

func (repo *CertificateRepository) CountByStatus(status string) (int64, error) {
	var count int64
	if err := repo.database.Model(&models.Certificate{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func preloadCertificateGraph(database *gorm.DB) *gorm.DB {
	return database.
		Preload("Enrollment").
		Preload("Enrollment.User").
		Preload("Enrollment.CourseLevel").
		Preload("Enrollment.CourseLevel.Language")
}

// ensureCertificate returns the enrollment's certificate, creating a pending one when absent.
// It must run inside a transaction handle.
func ensureCertificate(tx *gorm.DB, enrollmentID uint, next NumberGenerator, now time.Time) (models.Certificate, error) {
	var existing models.Certificate
	err := tx.Where("enrollment_id = ?", enrollmentID).First(&existing).Error
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Certificate{}, err
	}

	number, err := allocateCertificateNumber(tx, next)
	if err != nil {
		return models.Certificate{}, err
	}

	created := models.Certificate{
		EnrollmentID:      enrollmentID,
		CertificateNumber: number,
		Status:            models.CertificatePending,
		IssuedAt:          now,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}},
		DoNothing: true,
	}).Create(&created).Error; err != nil {
		return models.Certificate{}, err
	}

	var stored models.Certificate
	if err := tx.Where("enrollment_id = ?", enrollmentID).First(&stored).Error; err != nil {
		return models.Certificate{}, err
	}
	return stored, nil
}

func allocateCertificateNumber(tx *gorm.DB, next NumberGenerator) (string, error) {
	for attempt := 0; attempt < certificateNumberAttempts; attempt++ {
		candidate := next()
		var matched int64
		if err := tx.Model(&models.Certificate{}).
			Where("certificate_number = ?", candidate).
			Count(&matched).Error; err != nil {
			return "", err
		}
		if matched == 0 {
			return candidate, nil
		}
	}
	return "", ErrNumberSpaceExhausted
}
