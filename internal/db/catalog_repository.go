package db

import (
	"github.com/terraincognita07/ifla/internal/models"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	database *gorm.DB
}

func NewCatalogRepository(database *gorm.DB) *CatalogRepository {
	return &CatalogRepository{database: database}
}

func (repo *CatalogRepository) ListLanguages(activeOnly bool) ([]models.Language, error) {
	query := repo.database.Preload("Levels", func(tx *gorm.DB) *gorm.DB {
		if activeOnly {
			tx = tx.Where("is_active = ?", true)
		}
		return tx.Order("level ASC")
	})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	languages := make([]models.Language, 0)
	if err := query.Order("category ASC, name ASC").Find(&languages).Error; err != nil {
		return nil, err
	}
	return languages, nil
}

func (repo *CatalogRepository) FindLanguage(languageID uint) (models.Language, error) {
	var language models.Language
	if err := repo.database.
		Preload("Levels", func(tx *gorm.DB) *gorm.DB { return tx.Order("level ASC") }).
		First(&language, languageID).Error; err != nil {
		return models.Language{}, err
	}
	return language, nil
}

func (repo *CatalogRepository) FindLanguageByName(name string) (models.Language, error) {
	var language models.Language
	if err := repo.database.Where("lower(name) = lower(?)", name).First(&language).Error; err != nil {
		return models.Language{}, err
	}
	return language, nil
}

func (repo *CatalogRepository) LanguageNameTaken(name string, excludeID uint) (bool, error) {
	var matched int64
	query := repo.database.Model(&models.Language{}).Where("lower(name) = lower(?)", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&matched).Error; err != nil {
		return false, err
	}
	return matched > 0, nil
}

func (repo *CatalogRepository) CreateLanguage(language *models.Language) error {
	return repo.database.Create(language).Error
}

func (repo *CatalogRepository) UpdateLanguage(languageID uint, updates map[string]any) error {
	return repo.database.Model(&models.Language{}).Where("id = ?", languageID).Updates(updates).Error
}

func (repo *CatalogRepository) DeleteLanguage(languageID uint) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("language_id = ?", languageID).Delete(&models.CourseLevel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Language{}, languageID).Error
	})
}

func (repo *CatalogRepository) CountLanguages() (int64, error) {
	var count int64
	if err := repo.database.Model(&models.Language{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *CatalogRepository) ListLevels(languageID uint, activeOnly bool) ([]models.CourseLevel, error) {
	query := repo.database.Where("language_id = ?", languageID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	levels := make([]models.CourseLevel, 0)
	if err := query.Order("level ASC").Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

func (repo *CatalogRepository) FindLevel(levelID uint) (models.CourseLevel, error) {
	var level models.CourseLevel
	if err := repo.database.Preload("Language").First(&level, levelID).Error; err != nil {
		return models.CourseLevel{}, err
	}
	return level, nil
}

func (repo *CatalogRepository) FindLevelsByIDs(levelIDs []uint) ([]models.CourseLevel, error) {
	levels := make([]models.CourseLevel, 0, len(levelIDs))
	if len(levelIDs) == 0 {
		return levels, nil
	}
	if err := repo.database.Where("id IN ?", levelIDs).Order("level ASC").Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

func (repo *CatalogRepository) LevelTaken(languageID uint, level string, excludeID uint) (bool, error) {
	var matched int64
	query := repo.database.Model(&models.CourseLevel{}).Where("language_id = ? AND level = ?", languageID, level)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&matched).Error; err != nil {
		return false, err
	}
	return matched > 0, nil
}

func (repo *CatalogRepository) CreateLevel(level *models.CourseLevel) error {
	return repo.database.Create(level).Error
}

func (repo *CatalogRepository) UpdateLevel(levelID uint, updates map[string]any) error {
	return repo.database.Model(&models.CourseLevel{}).Where("id = ?", levelID).Updates(updates).Error
}

func (repo *CatalogRepository) DeleteLevel(levelID uint) error {
	return repo.database.Delete(&models.CourseLevel{}, levelID).Error
}

func (repo *CatalogRepository) CountLevels() (int64, error) {
	var count int64
	if err := repo.database.Model(&models.CourseLevel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *CatalogRepository) ListSchedules(levelID uint) ([]models.ClassSchedule, error) {
	schedules := make([]models.ClassSchedule, 0)
	if err := repo.database.
		Where("course_level_id = ? AND is_active = ?", levelID, true).
		Order("day_of_week ASC, start_time ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (repo *CatalogRepository) FindSchedule(scheduleID uint) (models.ClassSchedule, error) {
	var schedule models.ClassSchedule
	if err := repo.database.First(&schedule, scheduleID).Error; err != nil {
		return models.ClassSchedule{}, err
	}
	return schedule, nil
}

func (repo *CatalogRepository) CreateSchedule(schedule *models.ClassSchedule) error {
	return repo.database.Create(schedule).Error
}
