package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func OpenPostgres(dsn string, pool PoolConfig) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := applyEmbeddedMigrations(database, DialectPostgres); err != nil {
		return nil, fmt.Errorf("apply embedded migrations: %w", err)
	}

	return database, nil
}

// Open selects the driver by name. Unknown names are rejected rather than defaulted.
func Open(driver string, dsn string, pool PoolConfig) (*gorm.DB, error) {
	switch driver {
	case "", DialectSQLite:
		return OpenSQLite(dsn)
	case DialectPostgres:
		return OpenPostgres(dsn, pool)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
