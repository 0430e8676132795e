package services

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/models"
)

type EnrollmentRepository interface {
	FindByID(enrollmentID uint) (models.Enrollment, error)
	List(filter db.EnrollmentFilter) ([]models.Enrollment, error)
	Exists(userID uint, levelID uint) (bool, error)
	Create(enrollment *models.Enrollment) error
	ApplyProgress(enrollmentID uint, change db.ProgressChange, next db.NumberGenerator) (models.Enrollment, error)
	AssignSchedule(enrollmentID uint, scheduleID uint) error
}

type ScheduleLookup interface {
	FindLevel(levelID uint) (models.CourseLevel, error)
	FindSchedule(scheduleID uint) (models.ClassSchedule, error)
}

// ProgressUpdate is a staff edit of a ledger entry. Progress is the raw form value.
type ProgressUpdate struct {
	Status   *string
	Progress string
}

type LedgerService struct {
	enrollments EnrollmentRepository
	catalog     ScheduleLookup
	numbers     db.NumberGenerator
	now         func() time.Time
}

func NewLedgerService(enrollments EnrollmentRepository, catalog ScheduleLookup) *LedgerService {
	return &LedgerService{
		enrollments: enrollments,
		catalog:     catalog,
		numbers:     NewCertificateNumber,
		now:         time.Now,
	}
}

// NewCertificateNumber returns "IFLA-" followed by eight uppercase hex digits of a random UUID.
func NewCertificateNumber() string {
	id := uuid.New()
	return models.CertificateNumberPrefix + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// UpdateProgress applies a staff edit. Non-numeric progress is ignored and numbers are
// clamped to 0..100. Completing the entry issues its pending certificate.
func (service *LedgerService) UpdateProgress(enrollmentID uint, update ProgressUpdate) (models.Enrollment, error) {
	change := db.ProgressChange{Now: service.now().UTC()}

	if update.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*update.Status))
		if status != "" {
			if !models.IsValidEnrollmentStatus(status) {
				return models.Enrollment{}, ErrInvalidStatus
			}
			change.Status = &status
		}
	}
	if progress, ok := ParseProgress(update.Progress); ok {
		change.Progress = &progress
	}

	enrollment, err := service.enrollments.ApplyProgress(enrollmentID, change, service.numbers)
	if err != nil {
		switch {
		case isRecordNotFound(err):
			return models.Enrollment{}, ErrEnrollmentNotFound
		case errors.Is(err, db.ErrNumberSpaceExhausted):
			return models.Enrollment{}, ErrCertificateNumbers
		}
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

// ParseProgress reads a percentage leniently. It reports false for blank or non-numeric input.
func ParseProgress(raw string) (int, bool) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	if trimmed == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
	if err != nil || math.IsNaN(value) {
		return 0, false
	}
	switch {
	case value < 0:
		return 0, true
	case value > 100:
		return 100, true
	default:
		return int(value), true
	}
}

func (service *LedgerService) Get(enrollmentID uint) (models.Enrollment, error) {
	enrollment, err := service.enrollments.FindByID(enrollmentID)
	if err != nil {
		if isRecordNotFound(err) {
			return models.Enrollment{}, ErrEnrollmentNotFound
		}
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (service *LedgerService) ListForUser(userID uint) ([]models.Enrollment, error) {
	return service.enrollments.List(db.EnrollmentFilter{UserID: userID})
}

func (service *LedgerService) List(filter db.EnrollmentFilter) ([]models.Enrollment, error) {
	if filter.Status != "" && !models.IsValidEnrollmentStatus(filter.Status) {
		return nil, ErrInvalidStatus
	}
	return service.enrollments.List(filter)
}

// AssignSchedule attaches a class slot of the entry's own level.
func (service *LedgerService) AssignSchedule(enrollmentID uint, scheduleID uint) (models.Enrollment, error) {
	enrollment, err := service.Get(enrollmentID)
	if err != nil {
		return models.Enrollment{}, err
	}

	schedule, err := service.catalog.FindSchedule(scheduleID)
	if err != nil {
		if isRecordNotFound(err) {
			return models.Enrollment{}, ErrScheduleNotFound
		}
		return models.Enrollment{}, err
	}
	if schedule.CourseLevelID != enrollment.CourseLevelID {
		return models.Enrollment{}, ErrScheduleMismatch
	}

	if err := service.enrollments.AssignSchedule(enrollmentID, scheduleID); err != nil {
		return models.Enrollment{}, err
	}
	return service.Get(enrollmentID)
}

// Enroll creates a pending entry for the user outside the application workflow.
func (service *LedgerService) Enroll(user models.User, levelID uint) (models.Enrollment, error) {
	if levelID == 0 {
		return models.Enrollment{}, fieldError("course_level_id", "course_level_id is required")
	}
	level, err := service.catalog.FindLevel(levelID)
	if err != nil {
		if isRecordNotFound(err) {
			return models.Enrollment{}, ErrLevelNotFound
		}
		return models.Enrollment{}, err
	}

	exists, err := service.enrollments.Exists(user.ID, level.ID)
	if err != nil {
		return models.Enrollment{}, err
	}
	if exists {
		return models.Enrollment{}, ErrAlreadyEnrolled
	}

	enrollment := models.Enrollment{
		UserID:        user.ID,
		CourseLevelID: level.ID,
		Status:        models.EnrollmentPending,
		EnrolledAt:    service.now().UTC(),
	}
	if err := service.enrollments.Create(&enrollment); err != nil {
		if db.IsUniqueViolation(err) {
			return models.Enrollment{}, ErrAlreadyEnrolled
		}
		return models.Enrollment{}, err
	}
	return service.Get(enrollment.ID)
}
