package db

import (
	"time"

	"github.com/terraincognita07/ifla/internal/models"
	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	database *gorm.DB
}

func NewEnrollmentRepository(database *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{database: database}
}

type EnrollmentFilter struct {
	Status     string
	UserID     uint
	LanguageID uint
}

// ProgressChange is a normalized progress update. Nil fields are left unchanged.
type ProgressChange struct {
	Status   *string
	Progress *int
	Now      time.Time
}

type LanguageEnrollmentCount struct {
	Language string `gorm:"column:language" json:"language"`
	Count    int64  `gorm:"column:count" json:"count"`
}

func (repo *EnrollmentRepository) FindByID(enrollmentID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := preloadEnrollmentGraph(repo.database).First(&enrollment, enrollmentID).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (repo *EnrollmentRepository) List(filter EnrollmentFilter) ([]models.Enrollment, error) {
	query := preloadEnrollmentGraph(repo.database)
	if filter.Status != "" {
		query = query.Where("enrollments.status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		query = query.Where("enrollments.user_id = ?", filter.UserID)
	}
	if filter.LanguageID != 0 {
		query = query.
			Joins("JOIN course_levels ON course_levels.id = enrollments.course_level_id").
			Where("course_levels.language_id = ?", filter.LanguageID)
	}

	enrollments := make([]models.Enrollment, 0)
	if err := query.Order("enrollments.enrolled_at DESC, enrollments.id DESC").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (repo *EnrollmentRepository) Exists(userID uint, levelID uint) (bool, error) {
	var matched int64
	if err := repo.database.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_level_id = ?", userID, levelID).
		Count(&matched).Error; err != nil {
		return false, err
	}
	return matched > 0, nil
}

func (repo *EnrollmentRepository) Create(enrollment *models.Enrollment) error {
	return repo.database.Create(enrollment).Error
}

// ApplyProgress writes the change and, on completion, get-or-creates a pending certificate
// inside the same transaction.
func (repo *EnrollmentRepository) ApplyProgress(enrollmentID uint, change ProgressChange, next NumberGenerator) (models.Enrollment, error) {
	err := repo.database.Transaction(func(tx *gorm.DB) error {
		var enrollment models.Enrollment
		if err := tx.First(&enrollment, enrollmentID).Error; err != nil {
			return err
		}

		updates := map[string]any{}
		if change.Progress != nil {
			updates["progress_percentage"] = *change.Progress
		}
		completed := false
		if change.Status != nil {
			updates["status"] = *change.Status
			if *change.Status == models.EnrollmentCompleted {
				completed = true
				if enrollment.CompletedAt == nil {
					updates["completed_at"] = change.Now
				}
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.Enrollment{}).Where("id = ?", enrollment.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		if !completed {
			return nil
		}
		_, err := ensureCertificate(tx, enrollment.ID, next, change.Now)
		return err
	})
	if err != nil {
		return models.Enrollment{}, err
	}
	return repo.FindByID(enrollmentID)
}

func (repo *EnrollmentRepository) AssignSchedule(enrollmentID uint, scheduleID uint) error {
	return repo.database.Model(&models.Enrollment{}).
		Where("id = ?", enrollmentID).
		Update("class_schedule_id", scheduleID).Error
}

func (repo *EnrollmentRepository) CountByStatus(status string) (int64, error) {
	var count int64
	query := repo.database.Model(&models.Enrollment{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *EnrollmentRepository) CountSince(since time.Time) (int64, error) {
	var count int64
	if err := repo.database.Model(&models.Enrollment{}).Where("enrolled_at >= ?", since).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *EnrollmentRepository) CountGroupedByStatus() ([]StatusCount, error) {
	rows := make([]StatusCount, 0)
	if err := repo.database.Model(&models.Enrollment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (repo *EnrollmentRepository) CountByLanguage() ([]LanguageEnrollmentCount, error) {
	rows := make([]LanguageEnrollmentCount, 0)
	if err := repo.database.Table("enrollments").
		Select("languages.name AS language, COUNT(enrollments.id) AS count").
		Joins("JOIN course_levels ON course_levels.id = enrollments.course_level_id").
		Joins("JOIN languages ON languages.id = course_levels.language_id").
		Group("languages.name").
		Order("count DESC, languages.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func preloadEnrollmentGraph(database *gorm.DB) *gorm.DB {
	return database.
		Preload("User").
		Preload("CourseLevel").
		Preload("CourseLevel.Language").
		Preload("ClassSchedule").
		Preload("Certificate")
}
