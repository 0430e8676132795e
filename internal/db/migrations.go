package db

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	embeddedmigrations "github.com/terraincognita07/ifla/migrations"
	"gorm.io/gorm"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

var migrationFilePattern = regexp.MustCompile(`^(\d+)_[a-z0-9_]+\.sql$`)

type embeddedMigration struct {
	Version  string
	Order    int
	Name     string
	SQL      string
	Checksum string
}

// AppliedMigration is one row of schema_migrations.
type AppliedMigration struct {
	Version   string    `gorm:"column:version"`
	Name      string    `gorm:"column:name"`
	Checksum  string    `gorm:"column:checksum"`
	AppliedAt time.Time `gorm:"column:applied_at"`
}

// MigrationState pairs an embedded migration with its applied record, if any.
type MigrationState struct {
	Version string
	Name    string
	Applied *AppliedMigration
}

// applyEmbeddedMigrations runs every pending migration of dialect in version order. A
// migration whose embedded text no longer matches the recorded checksum stops the boot.
func applyEmbeddedMigrations(database *gorm.DB, dialect string) error {
	if err := ensureSchemaMigrationsTable(database, dialect); err != nil {
		return err
	}
	pending, err := loadEmbeddedMigrations(dialect)
	if err != nil {
		return err
	}
	applied, err := loadAppliedMigrations(database)
	if err != nil {
		return err
	}

	for _, migration := range pending {
		record, done := applied[migration.Version]
		if done {
			if record.Checksum != "" && record.Checksum != migration.Checksum {
				return fmt.Errorf("migration %s changed after it was applied", migration.Name)
			}
			continue
		}
		if err := runMigration(database, migration); err != nil {
			return err
		}
	}
	return nil
}

// MigrationStatus lists the embedded migrations of dialect with the state recorded in database.
func MigrationStatus(database *gorm.DB, dialect string) ([]MigrationState, error) {
	migrations, err := loadEmbeddedMigrations(dialect)
	if err != nil {
		return nil, err
	}
	applied, err := loadAppliedMigrations(database)
	if err != nil {
		return nil, err
	}

	states := make([]MigrationState, 0, len(migrations))
	for _, migration := range migrations {
		state := MigrationState{Version: migration.Version, Name: migration.Name}
		if record, ok := applied[migration.Version]; ok {
			state.Applied = &record
		}
		states = append(states, state)
	}
	return states, nil
}

// DialectOf reports which migration set belongs to an open connection.
func DialectOf(database *gorm.DB) string {
	if database.Dialector.Name() == DialectPostgres {
		return DialectPostgres
	}
	return DialectSQLite
}

func ensureSchemaMigrationsTable(database *gorm.DB, dialect string) error {
	timestamp := "DATETIME"
	if dialect == DialectPostgres {
		timestamp = "TIMESTAMPTZ"
	}
	statement := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  checksum TEXT NOT NULL DEFAULT '',
  applied_at %s NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, timestamp)
	if err := database.Exec(statement).Error; err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	return nil
}

func loadEmbeddedMigrations(dialect string) ([]embeddedMigration, error) {
	entries, err := fs.ReadDir(embeddedmigrations.Files, dialect)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dialect, err)
	}

	migrations := make([]embeddedMigration, 0, len(entries))
	byVersion := make(map[string]string, len(entries))
	for _, entry := range entries {
		matches := migrationFilePattern.FindStringSubmatch(entry.Name())
		if entry.IsDir() || matches == nil {
			continue
		}

		version := matches[1]
		if other, duplicate := byVersion[version]; duplicate {
			return nil, fmt.Errorf("duplicate migration version %s in %s and %s", version, other, entry.Name())
		}
		byVersion[version] = entry.Name()

		order, err := strconv.Atoi(version)
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %s: %w", entry.Name(), err)
		}
		body, err := fs.ReadFile(embeddedmigrations.Files, path.Join(dialect, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		sum := sha256.Sum256(body)

		migrations = append(migrations, embeddedMigration{
			Version:  version,
			Order:    order,
			Name:     entry.Name(),
			SQL:      string(body),
			Checksum: hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Order < migrations[j].Order })
	return migrations, nil
}

func loadAppliedMigrations(database *gorm.DB) (map[string]AppliedMigration, error) {
	var rows []AppliedMigration
	if err := database.Raw(`SELECT version, name, checksum, applied_at FROM schema_migrations`).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}

	applied := make(map[string]AppliedMigration, len(rows))
	for _, row := range rows {
		applied[row.Version] = row
	}
	return applied, nil
}

func runMigration(database *gorm.DB, migration embeddedMigration) error {
	statements := splitSQLStatements(migration.SQL)
	if len(statements) == 0 {
		return fmt.Errorf("migration %s has no SQL statements", migration.Name)
	}

	return database.Transaction(func(tx *gorm.DB) error {
		for index, statement := range statements {
			if err := tx.Exec(statement).Error; err != nil {
				return fmt.Errorf("migration %s statement %d: %w", migration.Name, index+1, err)
			}
		}
		err := tx.Exec(
			`INSERT INTO schema_migrations(version, name, checksum) VALUES (?, ?, ?)`,
			migration.Version, migration.Name, migration.Checksum,
		).Error
		if err != nil {
			return fmt.Errorf("record migration %s: %w", migration.Name, err)
		}
		return nil
	})
}

func splitSQLStatements(sqlText string) []string {
	var statements []string
	for _, part := range strings.Split(sqlText, ";") {
		if statement := strings.TrimSpace(part); statement != "" {
			statements = append(statements, statement)
		}
	}
	return statements
}
