package services

import (
	"strings"

	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/models"
)

type CatalogRepository interface {
	ListLanguages(activeOnly bool) ([]models.Language, error)
	FindLanguage(languageID uint) (models.Language, error)
	LanguageNameTaken(name string, excludeID uint) (bool, error)
	CreateLanguage(language *models.Language) error
	UpdateLanguage(languageID uint, updates map[string]any) error
	DeleteLanguage(languageID uint) error
	ListLevels(languageID uint, activeOnly bool) ([]models.CourseLevel, error)
	FindLevel(levelID uint) (models.CourseLevel, error)
	FindLevelsByIDs(levelIDs []uint) ([]models.CourseLevel, error)
	LevelTaken(languageID uint, level string, excludeID uint) (bool, error)
	CreateLevel(level *models.CourseLevel) error
	UpdateLevel(levelID uint, updates map[string]any) error
	DeleteLevel(levelID uint) error
	ListSchedules(levelID uint) ([]models.ClassSchedule, error)
	FindSchedule(scheduleID uint) (models.ClassSchedule, error)
}

// LanguageInput is the staff form for a catalog language. Nil pointers keep the stored value.
type LanguageInput struct {
	Name        *string
	Code        *string
	Flag        *string
	Description *string
	Category    *string
	IsActive    *bool
}

type LevelInput struct {
	Level         *string
	Price         *int64
	DurationWeeks *int
	Description   *string
	IsActive      *bool
}

type CatalogService struct {
	catalog CatalogRepository
}

func NewCatalogService(catalog CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (service *CatalogService) ListLanguages(activeOnly bool) ([]models.Language, error) {
	return service.catalog.ListLanguages(activeOnly)
}

func (service *CatalogService) GetLanguage(languageID uint) (models.Language, error) {
	language, err := service.catalog.FindLanguage(languageID)
	if err != nil {
		if isRecordNotFound(err) {
			return models.Language{}, ErrLanguageNotFound
		}
		return models.Language{}, err
	}
	return language, nil
}

func (service *CatalogService) ListLevels(languageID uint) ([]models.CourseLevel, error) {
	if _, err := service.GetLanguage(languageID); err != nil {
		return nil, err
	}
	return service.catalog.ListLevels(languageID, true)
}

func (service *CatalogService) GetLevel(levelID uint) (models.CourseLevel, error) {
	level, err := service.catalog.FindLevel(levelID)
	if err != nil {
		if isRecordNotFound(err) {
			return models.CourseLevel{}, ErrLevelNotFound
		}
		return models.CourseLevel{}, err
	}
	return level, nil
}

func (service *CatalogService) ListSchedules(levelID uint) ([]models.ClassSchedule, error) {
	if _, err := service.GetLevel(levelID); err != nil {
		return nil, err
	}
	return service.catalog.ListSchedules(levelID)
}

// ResolveLevels loads the requested levels, de-duplicated. Every id must name an active
// level of the given language.
func (service *CatalogService) ResolveLevels(languageID uint, levelIDs []uint) ([]models.CourseLevel, error) {
	unique := make([]uint, 0, len(levelIDs))
	seen := make(map[uint]struct{}, len(levelIDs))
	for _, levelID := range levelIDs {
		if levelID == 0 {
			continue
		}
		if _, ok := seen[levelID]; ok {
			continue
		}
		seen[levelID] = struct{}{}
		unique = append(unique, levelID)
	}
	if len(unique) == 0 {
		return nil, fieldError("levels", "select at least one level")
	}

	levels, err := service.catalog.FindLevelsByIDs(unique)
	if err != nil {
		return nil, err
	}
	if len(levels) != len(unique) {
		return nil, fieldError("levels", "one or more selected levels do not exist")
	}
	for _, level := range levels {
		if level.LanguageID != languageID {
			return nil, fieldError("levels", "selected levels must belong to the chosen language")
		}
		if !level.IsActive {
			return nil, fieldError("levels", "level "+level.Level+" is not open for enrollment")
		}
	}
	return levels, nil
}

func (service *CatalogService) CreateLanguage(input LanguageInput) (models.Language, error) {
	language := models.Language{Category: models.CategoryOther, IsActive: true}
	if err := applyLanguageInput(&language, input); err != nil {
		return models.Language{}, err
	}

	validationErr := NewValidationError()
	if language.Name == "" {
		validationErr.Add("name", "name is required")
	}
	if language.Code == "" {
		validationErr.Add("code", "code is required")
	}
	if err := validationErr.OrNil(); err != nil {
		return models.Language{}, err
	}

	taken, err := service.catalog.LanguageNameTaken(language.Name, 0)
	if err != nil {
		return models.Language{}, err
	}
	if taken {
		return models.Language{}, ErrLanguageExists
	}
	if err := service.catalog.CreateLanguage(&language); err != nil {
		if db.IsUniqueViolation(err) {
			return models.Language{}, ErrLanguageExists
		}
		return models.Language{}, err
	}
	return language, nil
}

func (service *CatalogService) UpdateLanguage(languageID uint, input LanguageInput) (models.Language, error) {
	language, err := service.GetLanguage(languageID)
	if err != nil {
		return models.Language{}, err
	}
	if err := applyLanguageInput(&language, input); err != nil {
		return models.Language{}, err
	}
	if language.Name == "" {
		return models.Language{}, fieldError("name", "name is required")
	}

	taken, err := service.catalog.LanguageNameTaken(language.Name, languageID)
	if err != nil {
		return models.Language{}, err
	}
	if taken {
		return models.Language{}, ErrLanguageExists
	}

	updates := map[string]any{
		"name":        language.Name,
		"code":        language.Code,
		"flag":        language.Flag,
		"description": language.Description,
		"category":    language.Category,
		"is_active":   language.IsActive,
	}
	if err := service.catalog.UpdateLanguage(languageID, updates); err != nil {
		if db.IsUniqueViolation(err) {
			return models.Language{}, ErrLanguageExists
		}
		return models.Language{}, err
	}
	return service.GetLanguage(languageID)
}

func (service *CatalogService) DeleteLanguage(languageID uint) error {
	if _, err := service.GetLanguage(languageID); err != nil {
		return err
	}
	return service.catalog.DeleteLanguage(languageID)
}

func (service *CatalogService) CreateLevel(languageID uint, input LevelInput) (models.CourseLevel, error) {
	if _, err := service.GetLanguage(languageID); err != nil {
		return models.CourseLevel{}, err
	}

	level := models.CourseLevel{LanguageID: languageID, DurationWeeks: 12, IsActive: true}
	if err := applyLevelInput(&level, input); err != nil {
		return models.CourseLevel{}, err
	}
	if level.Level == "" {
		return models.CourseLevel{}, fieldError("level", "level is required")
	}

	taken, err := service.catalog.LevelTaken(languageID, level.Level, 0)
	if err != nil {
		return models.CourseLevel{}, err
	}
	if taken {
		return models.CourseLevel{}, ErrLevelExists
	}
	if err := service.catalog.CreateLevel(&level); err != nil {
		if db.IsUniqueViolation(err) {
			return models.CourseLevel{}, ErrLevelExists
		}
		return models.CourseLevel{}, err
	}
	return level, nil
}

func (service *CatalogService) UpdateLevel(levelID uint, input LevelInput) (models.CourseLevel, error) {
	level, err := service.GetLevel(levelID)
	if err != nil {
		return models.CourseLevel{}, err
	}
	if err := applyLevelInput(&level, input); err != nil {
		return models.CourseLevel{}, err
	}

	taken, err := service.catalog.LevelTaken(level.LanguageID, level.Level, levelID)
	if err != nil {
		return models.CourseLevel{}, err
	}
	if taken {
		return models.CourseLevel{}, ErrLevelExists
	}

	updates := map[string]any{
		"level":          level.Level,
		"price":          level.Price,
		"duration_weeks": level.DurationWeeks,
		"description":    level.Description,
		"is_active":      level.IsActive,
	}
	if err := service.catalog.UpdateLevel(levelID, updates); err != nil {
		return models.CourseLevel{}, err
	}
	return service.GetLevel(levelID)
}

func (service *CatalogService) DeleteLevel(levelID uint) error {
	if _, err := service.GetLevel(levelID); err != nil {
		return err
	}
	return service.catalog.DeleteLevel(levelID)
}

func applyLanguageInput(language *models.Language, input LanguageInput) error {
	validationErr := NewValidationError()
	if input.Name != nil {
		language.Name = strings.TrimSpace(*input.Name)
	}
	if input.Code != nil {
		language.Code = strings.ToLower(strings.TrimSpace(*input.Code))
	}
	if input.Flag != nil {
		language.Flag = strings.TrimSpace(*input.Flag)
	}
	if input.Description != nil {
		language.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if !models.IsValidCategory(category) {
			validationErr.Add("category", "unknown category")
		}
		language.Category = category
	}
	if input.IsActive != nil {
		language.IsActive = *input.IsActive
	}
	return validationErr.OrNil()
}

func applyLevelInput(level *models.CourseLevel, input LevelInput) error {
	validationErr := NewValidationError()
	if input.Level != nil {
		code := strings.ToUpper(strings.TrimSpace(*input.Level))
		if !models.IsValidLevel(code) {
			validationErr.Add("level", "level must be one of A1, A2, B1, B2, C1, C2")
		}
		level.Level = code
	}
	if input.Price != nil {
		if *input.Price < 0 {
			validationErr.Add("price", "price cannot be negative")
		}
		level.Price = *input.Price
	}
	if input.DurationWeeks != nil {
		if *input.DurationWeeks <= 0 {
			validationErr.Add("duration_weeks", "duration must be at least one week")
		}
		level.DurationWeeks = *input.DurationWeeks
	}
	if input.Description != nil {
		level.Description = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		level.IsActive = *input.IsActive
	}
	return validationErr.OrNil()
}
