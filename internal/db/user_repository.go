package db

import (
	"strings"

	"github.com/terraincognita07/ifla/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	database *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{database: database}
}

type UserFilter struct {
	Search string
	Role   string
	Active *bool
}

func (repo *UserRepository) CountUsers() (int64, error) {
	var count int64
	if err := repo.database.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type UserCounts struct {
	Total    int64 `json:"total_users"`
	Active   int64 `json:"active_users"`
	Staff    int64 `json:"staff_users"`
	Students int64 `json:"student_users"`
}

func (repo *UserRepository) Counts() (UserCounts, error) {
	var counts UserCounts
	if err := repo.database.Model(&models.User{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active, "+
				"COALESCE(SUM(CASE WHEN is_staff THEN 1 ELSE 0 END), 0) AS staff, "+
				"COALESCE(SUM(CASE WHEN is_student THEN 1 ELSE 0 END), 0) AS students",
		).
		Row().
		Scan(&counts.Total, &counts.Active, &counts.Staff, &counts.Students); err != nil {
		return UserCounts{}, err
	}
	return counts, nil
}

func (repo *UserRepository) CountStudents() (int64, error) {
	var count int64
	if err := repo.database.Model(&models.User{}).
		Where("is_student = ? AND is_staff = ? AND is_superuser = ?", true, false, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *UserRepository) FindByID(userID uint) (models.User, error) {
	var user models.User
	if err := repo.database.First(&user, userID).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (repo *UserRepository) FindByNormalizedEmail(email string) (models.User, error) {
	var user models.User
	if err := repo.database.Where("lower(trim(email)) = ?", email).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (repo *UserRepository) FindByGoogleID(googleID string) (models.User, error) {
	var user models.User
	if err := repo.database.Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (repo *UserRepository) ExistsByNormalizedEmail(email string) (bool, error) {
	var matched int64
	if err := repo.database.Model(&models.User{}).
		Where("lower(trim(email)) = ?", email).
		Count(&matched).Error; err != nil {
		return false, err
	}
	return matched > 0, nil
}

func (repo *UserRepository) ExistsByUsername(username string) (bool, error) {
	var matched int64
	if err := repo.database.Model(&models.User{}).
		Where("username = ?", username).
		Count(&matched).Error; err != nil {
		return false, err
	}
	return matched > 0, nil
}

func (repo *UserRepository) Create(user *models.User) error {
	return repo.database.Create(user).Error
}

func (repo *UserRepository) Save(user *models.User) error {
	return repo.database.Save(user).Error
}

func (repo *UserRepository) UpdateByID(userID uint, updates map[string]any) error {
	return repo.database.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}

func (repo *UserRepository) UpdatePassword(userID uint, passwordHash string) error {
	return repo.database.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", passwordHash).Error
}

func (repo *UserRepository) List(filter UserFilter) ([]models.User, error) {
	query := repo.database.Model(&models.User{})

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"lower(email) LIKE ? OR lower(username) LIKE ? OR lower(first_name) LIKE ? OR lower(last_name) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	switch filter.Role {
	case models.RoleSuperuser:
		query = query.Where("is_superuser = ?", true)
	case models.RoleStaff:
		query = query.Where("is_staff = ?", true)
	case models.RoleStudent:
		query = query.Where("is_staff = ? AND is_superuser = ?", false, false)
	}

	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}

	users := make([]models.User, 0)
	if err := query.Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
