package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/models"
	"github.com/terraincognita07/ifla/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "ifla.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return database
}

func fixedPassword(password string) PasswordSource {
	return func() (string, error) { return password, nil }
}

func TestResetPasswordGeneratesUsableTemporaryPassword(t *testing.T) {
	database := openTestDatabase(t)

	var out bytes.Buffer
	if _, err := RunCreateStaffCommand(database, StaffOptions{Email: "office@ifla.example", Password: fixedPassword("Ledger2026")}, &out); err != nil {
		t.Fatalf("RunCreateStaffCommand() error: %v", err)
	}

	out.Reset()
	if err := RunResetPasswordCommand(database, "office@ifla.example", nil, &out); err != nil {
		t.Fatalf("RunResetPasswordCommand() error: %v", err)
	}
	_, password, found := strings.Cut(strings.TrimSpace(out.String()), "Temporary password: ")
	if !found {
		t.Fatalf("expected a printed temporary password, got %q", out.String())
	}
	if err := services.ValidatePasswordStrength(password); err != nil {
		t.Fatalf("temporary password %q fails the strength rule: %v", password, err)
	}

	stored, err := db.NewUserRepository(database).FindByNormalizedEmail("office@ifla.example")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(password)) != nil {
		t.Fatal("expected the printed password to be stored")
	}
}

func TestCreateStaffAndResetPassword(t *testing.T) {
	database := openTestDatabase(t)

	var out bytes.Buffer
	user, err := RunCreateStaffCommand(database, StaffOptions{Email: "Director@IFLA.example", Superuser: true}, &out)
	if err != nil {
		t.Fatalf("RunCreateStaffCommand() error: %v", err)
	}
	if !user.IsStaff || !user.IsSuperuser || user.IsStudent {
		t.Fatalf("unexpected role flags %#v", user)
	}
	if !strings.Contains(out.String(), "Temporary password: ") {
		t.Fatalf("expected temporary password in output, got %q", out.String())
	}

	stored, err := db.NewUserRepository(database).FindByID(user.ID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.Email != "director@ifla.example" || stored.Role() != models.RoleSuperuser {
		t.Fatalf("unexpected stored user %#v", stored)
	}

	if _, err := RunCreateStaffCommand(database, StaffOptions{Email: "director@ifla.example"}, &out); err == nil {
		t.Fatal("expected duplicate staff account to fail")
	}

	out.Reset()
	if err := RunResetPasswordCommand(database, "director@ifla.example", fixedPassword("Director2026"), &out); err != nil {
		t.Fatalf("RunResetPasswordCommand() error: %v", err)
	}
	if strings.Contains(out.String(), "Temporary password") {
		t.Fatalf("did not expect a temporary password for a chosen one, got %q", out.String())
	}

	stored, err = db.NewUserRepository(database).FindByID(user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Director2026")) != nil {
		t.Fatal("expected the chosen password to be stored")
	}
}

func TestResetPasswordValidation(t *testing.T) {
	database := openTestDatabase(t)
	var out bytes.Buffer

	if err := RunResetPasswordCommand(database, "", nil, &out); err == nil {
		t.Fatal("expected empty email to fail")
	}
	if err := RunResetPasswordCommand(database, "not an email", nil, &out); err == nil {
		t.Fatal("expected malformed email to fail")
	}
	if err := RunResetPasswordCommand(database, "ghost@example.com", nil, &out); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}

	if _, err := RunCreateStaffCommand(database, StaffOptions{Email: "teacher@example.com", Password: fixedPassword("Teach1234")}, &out); err != nil {
		t.Fatalf("RunCreateStaffCommand() error: %v", err)
	}
	if err := RunResetPasswordCommand(database, "teacher@example.com", fixedPassword("weak"), &out); err == nil {
		t.Fatal("expected weak password to be rejected")
	}

	failing := func() (string, error) { return "", errors.New("passwords do not match") }
	if err := RunResetPasswordCommand(database, "teacher@example.com", failing, &out); err == nil {
		t.Fatal("expected prompt failure to propagate")
	}
}

func TestSeedCatalogIsRepeatable(t *testing.T) {
	database := openTestDatabase(t)
	var out bytes.Buffer

	first, err := RunSeedCatalogCommand(database, &out)
	if err != nil {
		t.Fatalf("RunSeedCatalogCommand() error: %v", err)
	}
	if first.LanguagesCreated != len(seedLanguages) || first.LevelsCreated != len(seedLanguages)*6 {
		t.Fatalf("unexpected first seed result %#v", first)
	}

	second, err := RunSeedCatalogCommand(database, &out)
	if err != nil {
		t.Fatalf("second RunSeedCatalogCommand() error: %v", err)
	}
	if second.LanguagesCreated != 0 || second.LevelsCreated != 0 {
		t.Fatalf("expected repeat seed to create nothing, got %#v", second)
	}

	catalog := db.NewCatalogRepository(database)
	french, err := catalog.FindLanguageByName("French")
	if err != nil {
		t.Fatalf("find French: %v", err)
	}
	levels, err := catalog.ListLevels(french.ID, false)
	if err != nil {
		t.Fatalf("list levels: %v", err)
	}
	prices := map[string]int64{}
	for _, level := range levels {
		prices[level.Level] = level.Price
	}
	if prices[models.LevelA1] != 14000 || prices[models.LevelC2] != 24000 {
		t.Fatalf("unexpected French prices %#v", prices)
	}

	japanese, err := catalog.FindLanguageByName("japanese")
	if err != nil {
		t.Fatalf("find Japanese: %v", err)
	}
	if japanese.Category != models.CategoryAsian {
		t.Fatalf("unexpected Japanese category %q", japanese.Category)
	}
}

func TestMigrationStatusListsAppliedFiles(t *testing.T) {
	database := openTestDatabase(t)

	var out bytes.Buffer
	if err := RunMigrationStatusCommand(database, &out); err != nil {
		t.Fatalf("RunMigrationStatusCommand() error: %v", err)
	}
	if !strings.Contains(out.String(), "001_init.sql  applied ") {
		t.Fatalf("unexpected status output %q", out.String())
	}
	if strings.Contains(out.String(), "pending") {
		t.Fatalf("did not expect pending migrations, got %q", out.String())
	}
}
