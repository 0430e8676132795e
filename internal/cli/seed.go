package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/models"
	"gorm.io/gorm"
)

type seedLanguage struct {
	name        string
	code        string
	flag        string
	category    string
	basePrice   int64
	description string
}

const (
	seedPriceStep     = 2000
	seedDurationWeeks = 12
)

// Standard tier starts at 16000 per level, the lower tier at 14000. Each level adds 2000.
var seedLanguages = []seedLanguage{
	{"Japanese", "ja", "🇯🇵", models.CategoryAsian, 16000, "Master the elegant Japanese language and immerse yourself in one of the world's most fascinating cultures."},
	{"Chinese", "zh", "🇨🇳", models.CategoryAsian, 16000, "Learn Mandarin Chinese and unlock opportunities in the world's most spoken language."},
	{"Hebrew", "he", "🇮🇱", models.CategoryMiddleEastern, 16000, "Discover the ancient Hebrew language and connect with its rich historical and cultural heritage."},
	{"Korean", "ko", "🇰🇷", models.CategoryAsian, 16000, "Explore Korean language and dive into K-culture, K-pop, and modern Korean society."},
	{"Russian", "ru", "🇷🇺", models.CategoryEuropean, 16000, "Master Russian and access the language of Tolstoy, Dostoyevsky, and rich Slavic culture."},
	{"Dutch", "nl", "🇳🇱", models.CategoryEuropean, 16000, "Learn Dutch and open doors to opportunities in the Netherlands and Belgium."},
	{"Swedish", "sv", "🇸🇪", models.CategoryEuropean, 16000, "Embrace Swedish and connect with Scandinavian culture, design, and innovation."},
	{"Arabic", "ar", "🇸🇦", models.CategoryMiddleEastern, 14000, "Learn Modern Standard Arabic and explore the rich cultural heritage of the Arab world."},
	{"French", "fr", "🇫🇷", models.CategoryEuropean, 14000, "Master the language of love, diplomacy, and one of the world's most beautiful cultures."},
	{"Spanish", "es", "🇪🇸", models.CategoryEuropean, 14000, "Learn Spanish and connect with over 500 million speakers across the globe."},
	{"Italian", "it", "🇮🇹", models.CategoryEuropean, 14000, "Discover Italian, the language of art, music, cuisine, and la dolce vita."},
	{"German", "de", "🇩🇪", models.CategoryEuropean, 14000, "Master German and access opportunities in Europe's largest economy and beyond."},
}

type SeedResult struct {
	LanguagesCreated int
	LevelsCreated    int
}

// RunSeedCatalogCommand creates the standard languages with levels A1 to C2. Existing
// languages and levels are left untouched, so the command can run repeatedly.
func RunSeedCatalogCommand(database *gorm.DB, out io.Writer) (SeedResult, error) {
	catalog := db.NewCatalogRepository(database)
	result := SeedResult{}

	for _, seed := range seedLanguages {
		language, err := catalog.FindLanguageByName(seed.name)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			language = models.Language{
				Name:        seed.name,
				Code:        seed.code,
				Flag:        seed.flag,
				Description: seed.description,
				Category:    seed.category,
				IsActive:    true,
			}
			if err := catalog.CreateLanguage(&language); err != nil {
				return result, fmt.Errorf("create language %s: %w", seed.name, err)
			}
			result.LanguagesCreated++
			fmt.Fprintf(out, "Created language: %s\n", language.Name)
		case err != nil:
			return result, fmt.Errorf("load language %s: %w", seed.name, err)
		default:
			fmt.Fprintf(out, "Language already exists: %s\n", language.Name)
		}

		for index, code := range models.Levels() {
			taken, err := catalog.LevelTaken(language.ID, code, 0)
			if err != nil {
				return result, fmt.Errorf("check level %s %s: %w", seed.name, code, err)
			}
			if taken {
				continue
			}
			level := models.CourseLevel{
				LanguageID:    language.ID,
				Level:         code,
				Price:         seed.basePrice + int64(index)*seedPriceStep,
				DurationWeeks: seedDurationWeeks,
				IsActive:      true,
			}
			if err := catalog.CreateLevel(&level); err != nil {
				return result, fmt.Errorf("create level %s %s: %w", seed.name, code, err)
			}
			result.LevelsCreated++
			fmt.Fprintf(out, "  Created level: %s\n", level.Display())
		}
	}

	fmt.Fprintf(out, "Seeded %d languages and %d levels\n", result.LanguagesCreated, result.LevelsCreated)
	return result, nil
}
