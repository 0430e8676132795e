package db

import (
	"time"

	"github.com/terraincognita07/ifla/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApplicationRepository struct {
	database *gorm.DB
}

func NewApplicationRepository(database *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{database: database}
}

type ApplicationFilter struct {
	Status        string
	PaymentStatus string
	UserID        uint
}

type StatusCount struct {
	Status string `gorm:"column:status" json:"status"`
	Count  int64  `gorm:"column:count" json:"count"`
}

// ApprovalOptions controls how ApproveAndEnroll treats payment state.
// MarkPaid records a successful payment alongside approval.
type ApprovalOptions struct {
	MarkPaid bool
	Now      time.Time
}

// Create stores the application and its level links without touching the catalog rows.
func (repo *ApplicationRepository) Create(application *models.Application) error {
	return repo.database.Omit("Levels.*").Create(application).Error
}

func (repo *ApplicationRepository) FindByID(applicationID uint) (models.Application, error) {
	var application models.Application
	if err := repo.database.
		Preload("Levels", func(tx *gorm.DB) *gorm.DB { return tx.Order("level ASC") }).
		Preload("Language").
		First(&application, applicationID).Error; err != nil {
		return models.Application{}, err
	}
	return application, nil
}

func (repo *ApplicationRepository) FindByGatewayOrderID(orderID string) (models.Application, error) {
	var application models.Application
	if err := repo.database.Where("gateway_order_id = ?", orderID).First(&application).Error; err != nil {
		return models.Application{}, err
	}
	return application, nil
}

func (repo *ApplicationRepository) List(filter ApplicationFilter) ([]models.Application, error) {
	query := repo.database.
		Preload("Levels", func(tx *gorm.DB) *gorm.DB { return tx.Order("level ASC") }).
		Preload("Language").
		Preload("User")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	applications := make([]models.Application, 0)
	if err := query.Order("created_at DESC, id DESC").Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// AttachOrder records a gateway order unless the application is already paid.
// It reports false when the payment guard rejected the update.
func (repo *ApplicationRepository) AttachOrder(applicationID uint, orderID string) (bool, error) {
	result := repo.database.Model(&models.Application{}).
		Where("id = ? AND payment_status <> ?", applicationID, models.PaymentSuccess).
		Updates(map[string]any{
			"gateway_order_id": orderID,
			"payment_status":   models.PaymentPending,
			"status":           models.ApplicationPaymentPending,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ApplyCapture marks a captured payment. A capture that was already applied is left untouched.
func (repo *ApplicationRepository) ApplyCapture(applicationID uint, paymentID string, now time.Time) (bool, error) {
	result := repo.database.Model(&models.Application{}).
		Where("id = ? AND payment_status <> ?", applicationID, models.PaymentSuccess).
		Updates(map[string]any{
			"payment_status":     models.PaymentSuccess,
			"gateway_payment_id": paymentID,
			"payment_reference":  paymentID,
			"status":             models.ApplicationSubmitted,
			"paid_at":            now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ApplyFailure marks a failed payment. A successful payment is never downgraded.
func (repo *ApplicationRepository) ApplyFailure(applicationID uint) (bool, error) {
	result := repo.database.Model(&models.Application{}).
		Where("id = ? AND payment_status <> ?", applicationID, models.PaymentSuccess).
		Update("payment_status", models.PaymentFailed)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (repo *ApplicationRepository) SetStatus(applicationID uint, status string) error {
	return repo.database.Model(&models.Application{}).
		Where("id = ?", applicationID).
		Update("status", status).Error
}

// ApproveAndEnroll approves the application and get-or-creates one active ledger entry per level.
// The (user_id, course_level_id) unique index turns concurrent duplicates into no-ops.
func (repo *ApplicationRepository) ApproveAndEnroll(applicationID uint, options ApprovalOptions) ([]models.Enrollment, error) {
	enrollments := make([]models.Enrollment, 0)
	err := repo.database.Transaction(func(tx *gorm.DB) error {
		var application models.Application
		if err := tx.Preload("Levels").First(&application, applicationID).Error; err != nil {
			return err
		}

		updates := map[string]any{"status": models.ApplicationApproved}
		if options.MarkPaid {
			updates["payment_status"] = models.PaymentSuccess
			if application.PaidAt == nil {
				updates["paid_at"] = options.Now
			}
		} else if application.PaymentStatus != models.PaymentSuccess {
			updates["approved_without_payment"] = true
		}
		if err := tx.Model(&models.Application{}).Where("id = ?", application.ID).Updates(updates).Error; err != nil {
			return err
		}

		levelIDs := make([]uint, 0, len(application.Levels))
		for _, level := range application.Levels {
			entry := models.Enrollment{
				UserID:             application.UserID,
				CourseLevelID:      level.ID,
				Status:             models.EnrollmentActive,
				ProgressPercentage: 0,
				EnrolledAt:         options.Now,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
				return err
			}
			levelIDs = append(levelIDs, level.ID)
		}

		if len(levelIDs) == 0 {
			return nil
		}
		return tx.
			Where("user_id = ? AND course_level_id IN ?", application.UserID, levelIDs).
			Order("id ASC").
			Find(&enrollments).Error
	})
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (repo *ApplicationRepository) CountByStatus() ([]StatusCount, error) {
	rows := make([]StatusCount, 0)
	if err := repo.database.Model(&models.Application{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (repo *ApplicationRepository) CountAll() (int64, error) {
	var count int64
	if err := repo.database.Model(&models.Application{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *ApplicationRepository) CountSince(since time.Time) (int64, error) {
	var count int64
	if err := repo.database.Model(&models.Application{}).Where("created_at >= ?", since).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *ApplicationRepository) SumRevenue(since *time.Time) (int64, error) {
	var total int64
	query := repo.database.Model(&models.Application{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("payment_status = ?", models.PaymentSuccess)
	if since != nil {
		query = query.Where("paid_at >= ?", *since)
	}
	if err := query.Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
