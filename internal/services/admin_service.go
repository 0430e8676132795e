package services

import (
	"strings"
	"time"

	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/models"
	"github.com/terraincognita07/ifla/internal/security"
	"golang.org/x/crypto/bcrypt"
)

type AdminUserRepository interface {
	List(filter db.UserFilter) ([]models.User, error)
	FindByID(userID uint) (models.User, error)
	ExistsByNormalizedEmail(email string) (bool, error)
	ExistsByUsername(username string) (bool, error)
	Create(user *models.User) error
	UpdateByID(userID uint, updates map[string]any) error
	Counts() (db.UserCounts, error)
}

type AdminApplicationStats interface {
	CountAll() (int64, error)
	CountByStatus() ([]db.StatusCount, error)
	CountSince(since time.Time) (int64, error)
	SumRevenue(since *time.Time) (int64, error)
}

type AdminEnrollmentStats interface {
	CountByStatus(status string) (int64, error)
	CountGroupedByStatus() ([]db.StatusCount, error)
	CountSince(since time.Time) (int64, error)
	CountByLanguage() ([]db.LanguageEnrollmentCount, error)
}

type AdminCatalogStats interface {
	CountLanguages() (int64, error)
	CountLevels() (int64, error)
}

type AdminCertificateStats interface {
	CountByStatus(status string) (int64, error)
}

type DashboardStats struct {
	TotalLanguages      int64            `json:"total_languages"`
	TotalCourses        int64            `json:"total_courses"`
	TotalEnrollments    int64            `json:"total_enrollments"`
	ActiveEnrollments   int64            `json:"active_enrollments"`
	PendingApplications int64            `json:"pending_applications"`
	TotalApplications   int64            `json:"total_applications"`
	TotalRevenue        int64            `json:"total_revenue"`
	CertificatesIssued  int64            `json:"certificates_issued"`
	PendingCertificates int64            `json:"pending_certificates"`
	Users               db.UserCounts    `json:"users"`
	ApplicationsByState []db.StatusCount `json:"applications_by_status"`
	EnrollmentsByState  []db.StatusCount `json:"enrollments_by_status"`
}

type PeriodCounts struct {
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
	Month int64 `json:"month"`
	Year  int64 `json:"year"`
}

type Analytics struct {
	Enrollments           PeriodCounts                 `json:"enrollments"`
	Applications          PeriodCounts                 `json:"applications"`
	Revenue               PeriodCounts                 `json:"revenue"`
	EnrollmentsByLanguage []db.LanguageEnrollmentCount `json:"enrollments_by_language"`
	EnrollmentsByStatus   []db.StatusCount             `json:"enrollments_by_status"`
}

// UserInput is the staff form for an account. Nil pointers keep the stored value.
type UserInput struct {
	Email     string
	Username  string
	Password  string
	FirstName *string
	LastName  *string
	Phone     *string
	IsStaff   *bool
	IsStudent *bool
	IsActive  *bool
}

type AdminService struct {
	users        AdminUserRepository
	applications AdminApplicationStats
	enrollments  AdminEnrollmentStats
	catalog      AdminCatalogStats
	certificates AdminCertificateStats
	now          func() time.Time
}

func NewAdminService(
	users AdminUserRepository,
	applications AdminApplicationStats,
	enrollments AdminEnrollmentStats,
	catalog AdminCatalogStats,
	certificates AdminCertificateStats,
) *AdminService {
	return &AdminService{
		users:        users,
		applications: applications,
		enrollments:  enrollments,
		catalog:      catalog,
		certificates: certificates,
		now:          time.Now,
	}
}

func (service *AdminService) Stats() (DashboardStats, error) {
	var stats DashboardStats
	var err error

	if stats.TotalLanguages, err = service.catalog.CountLanguages(); err != nil {
		return DashboardStats{}, err
	}
	if stats.TotalCourses, err = service.catalog.CountLevels(); err != nil {
		return DashboardStats{}, err
	}
	if stats.TotalEnrollments, err = service.enrollments.CountByStatus(""); err != nil {
		return DashboardStats{}, err
	}
	if stats.ActiveEnrollments, err = service.enrollments.CountByStatus(models.EnrollmentActive); err != nil {
		return DashboardStats{}, err
	}
	if stats.TotalApplications, err = service.applications.CountAll(); err != nil {
		return DashboardStats{}, err
	}
	if stats.ApplicationsByState, err = service.applications.CountByStatus(); err != nil {
		return DashboardStats{}, err
	}
	for _, row := range stats.ApplicationsByState {
		if row.Status == models.ApplicationSubmitted || row.Status == models.ApplicationPaymentPending {
			stats.PendingApplications += row.Count
		}
	}
	if stats.EnrollmentsByState, err = service.enrollments.CountGroupedByStatus(); err != nil {
		return DashboardStats{}, err
	}
	if stats.TotalRevenue, err = service.applications.SumRevenue(nil); err != nil {
		return DashboardStats{}, err
	}
	if stats.CertificatesIssued, err = service.certificates.CountByStatus(models.CertificateApproved); err != nil {
		return DashboardStats{}, err
	}
	if stats.PendingCertificates, err = service.certificates.CountByStatus(models.CertificatePending); err != nil {
		return DashboardStats{}, err
	}
	if stats.Users, err = service.users.Counts(); err != nil {
		return DashboardStats{}, err
	}
	return stats, nil
}

// Analytics reports activity over the trailing day, week, month and year. Revenue counts
// only applications whose payment succeeded.
func (service *AdminService) Analytics() (Analytics, error) {
	now := service.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	windows := []time.Time{today, today.AddDate(0, 0, -7), today.AddDate(0, 0, -30), today.AddDate(0, 0, -365)}

	var analytics Analytics
	enrollments := make([]int64, len(windows))
	applications := make([]int64, len(windows))
	revenue := make([]int64, len(windows))
	for index, since := range windows {
		var err error
		if enrollments[index], err = service.enrollments.CountSince(since); err != nil {
			return Analytics{}, err
		}
		if applications[index], err = service.applications.CountSince(since); err != nil {
			return Analytics{}, err
		}
		start := since
		if revenue[index], err = service.applications.SumRevenue(&start); err != nil {
			return Analytics{}, err
		}
	}
	analytics.Enrollments = periodCounts(enrollments)
	analytics.Applications = periodCounts(applications)
	analytics.Revenue = periodCounts(revenue)

	var err error
	if analytics.EnrollmentsByLanguage, err = service.enrollments.CountByLanguage(); err != nil {
		return Analytics{}, err
	}
	if analytics.EnrollmentsByStatus, err = service.enrollments.CountGroupedByStatus(); err != nil {
		return Analytics{}, err
	}
	return analytics, nil
}

func (service *AdminService) ListUsers(filter db.UserFilter) ([]models.User, error) {
	return service.users.List(filter)
}

func (service *AdminService) GetUser(userID uint) (models.User, error) {
	user, err := service.users.FindByID(userID)
	if err != nil {
		if isRecordNotFound(err) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// AddUser creates an account on behalf of staff. A temporary password is generated when
// none is given and returned so it can be handed over.
func (service *AdminService) AddUser(actor models.User, input UserInput) (models.User, string, error) {
	if !actor.CanManage() {
		return models.User{}, "", ErrStaffOnly
	}

	email := NormalizeAuthEmail(input.Email)
	if email == "" {
		return models.User{}, "", fieldError("email", "enter a valid email address")
	}
	exists, err := service.users.ExistsByNormalizedEmail(email)
	if err != nil {
		return models.User{}, "", err
	}
	if exists {
		return models.User{}, "", ErrEmailTaken
	}

	username, err := NormalizeUsername(input.Username, email)
	if err != nil {
		return models.User{}, "", err
	}
	taken, err := service.users.ExistsByUsername(username)
	if err != nil {
		return models.User{}, "", err
	}
	if taken {
		return models.User{}, "", ErrUsernameTaken
	}

	password := input.Password
	generated := ""
	if strings.TrimSpace(password) == "" {
		generated, err = security.TemporaryPassword(12)
		if err != nil {
			return models.User{}, "", err
		}
		password = generated
	} else if err := ValidatePasswordFor(password, email, username, derefString(input.FirstName), derefString(input.LastName)); err != nil {
		return models.User{}, "", err
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", err
	}

	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(passwordHash),
		IsVerified:   true,
		IsStudent:    true,
		IsActive:     true,
		CreatedAt:    service.now().UTC(),
	}
	applyUserProfile(&user, input)
	if actor.IsSuperuser {
		if input.IsStaff != nil {
			user.IsStaff = *input.IsStaff
		}
		if input.IsStudent != nil {
			user.IsStudent = *input.IsStudent
		}
	}

	if err := service.users.Create(&user); err != nil {
		if db.IsUniqueViolation(err) {
			return models.User{}, "", ErrEmailTaken
		}
		return models.User{}, "", err
	}
	return user, generated, nil
}

// UpdateUser edits profile fields. Role and activity flags change only for superusers.
func (service *AdminService) UpdateUser(actor models.User, userID uint, input UserInput) (models.User, error) {
	if !actor.CanManage() {
		return models.User{}, ErrStaffOnly
	}
	user, err := service.GetUser(userID)
	if err != nil {
		return models.User{}, err
	}

	applyUserProfile(&user, input)
	updates := map[string]any{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"phone":      user.Phone,
	}
	if actor.IsSuperuser {
		if input.IsStaff != nil {
			updates["is_staff"] = *input.IsStaff
		}
		if input.IsStudent != nil {
			updates["is_student"] = *input.IsStudent
		}
		if input.IsActive != nil {
			if !*input.IsActive && actor.ID == userID {
				return models.User{}, ErrCannotDeactivateSelf
			}
			updates["is_active"] = *input.IsActive
		}
	}

	if err := service.users.UpdateByID(userID, updates); err != nil {
		return models.User{}, err
	}
	return service.GetUser(userID)
}

// DeactivateUser is the soft delete of an account.
func (service *AdminService) DeactivateUser(actor models.User, userID uint) (models.User, error) {
	return service.setActive(actor, userID, func(models.User) bool { return false })
}

func (service *AdminService) ToggleUserActive(actor models.User, userID uint) (models.User, error) {
	return service.setActive(actor, userID, func(user models.User) bool { return !user.IsActive })
}

func (service *AdminService) setActive(actor models.User, userID uint, next func(models.User) bool) (models.User, error) {
	if !actor.CanManage() {
		return models.User{}, ErrStaffOnly
	}
	if actor.ID == userID {
		return models.User{}, ErrCannotDeactivateSelf
	}
	user, err := service.GetUser(userID)
	if err != nil {
		return models.User{}, err
	}

	active := next(user)
	if err := service.users.UpdateByID(userID, map[string]any{"is_active": active}); err != nil {
		return models.User{}, err
	}
	user.IsActive = active
	return user, nil
}

func applyUserProfile(user *models.User, input UserInput) {
	if input.FirstName != nil && strings.TrimSpace(*input.FirstName) != "" {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil && strings.TrimSpace(*input.LastName) != "" {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil && strings.TrimSpace(*input.Phone) != "" {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
}

func periodCounts(values []int64) PeriodCounts {
	return PeriodCounts{Today: values[0], Week: values[1], Month: values[2], Year: values[3]}
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
