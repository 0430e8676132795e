package models

import "time"

const (
	CategoryEuropean      = "european"
	CategoryAsian         = "asian"
	CategoryMiddleEastern = "middle_eastern"
	CategoryOther         = "other"
)

const (
	LevelA1 = "A1"
	LevelA2 = "A2"
	LevelB1 = "B1"
	LevelB2 = "B2"
	LevelC1 = "C1"
	LevelC2 = "C2"
)

var levelDisplayNames = map[string]string{
	LevelA1: "A1 - Beginner",
	LevelA2: "A2 - Elementary",
	LevelB1: "B1 - Intermediate",
	LevelB2: "B2 - Upper Intermediate",
	LevelC1: "C1 - Advanced",
	LevelC2: "C2 - Proficient",
}

func Levels() []string {
	return []string{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}
}

func IsValidLevel(level string) bool {
	_, ok := levelDisplayNames[level]
	return ok
}

func LevelDisplay(level string) string {
	if display, ok := levelDisplayNames[level]; ok {
		return display
	}
	return level
}

func IsValidCategory(category string) bool {
	switch category {
	case CategoryEuropean, CategoryAsian, CategoryMiddleEastern, CategoryOther:
		return true
	default:
		return false
	}
}

type Language struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"uniqueIndex;not null" json:"name"`
	Code        string        `gorm:"not null" json:"code"`
	Flag        string        `json:"flag"`
	Description string        `json:"description"`
	Category    string        `gorm:"not null;default:other" json:"category"`
	IsActive    bool          `gorm:"not null" json:"is_active"`
	Levels      []CourseLevel `gorm:"foreignKey:LanguageID" json:"levels,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

type CourseLevel struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	LanguageID    uint      `gorm:"not null;uniqueIndex:uidx_language_level" json:"language_id"`
	Language      *Language `json:"language,omitempty"`
	Level         string    `gorm:"not null;uniqueIndex:uidx_language_level" json:"level"`
	Price         int64     `gorm:"not null" json:"price"`
	DurationWeeks int       `gorm:"not null;default:12" json:"duration_weeks"`
	Description   string    `json:"description"`
	IsActive      bool      `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

func (level CourseLevel) Display() string {
	return LevelDisplay(level.Level)
}

type ClassSchedule struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	CourseLevelID uint   `gorm:"not null;index" json:"course_level_id"`
	DayOfWeek     int    `gorm:"not null" json:"day_of_week"`
	StartTime     string `gorm:"not null" json:"start_time"`
	EndTime       string `gorm:"not null" json:"end_time"`
	Instructor    string `json:"instructor"`
	Room          string `json:"room"`
	IsOnline      bool   `gorm:"not null;default:false" json:"is_online"`
	MeetingLink   string `json:"meeting_link"`
	IsActive      bool   `gorm:"not null" json:"is_active"`
}
