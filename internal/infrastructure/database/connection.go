package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// Registers the cgo-free "sqlite" database/sql driver used by sqlite-pure
	_ "modernc.org/sqlite"

	"github.com/andrescamacho/microgreens-go/internal/adapters/persistence"
	"github.com/andrescamacho/microgreens-go/internal/infrastructure/config"
)

// NewConnection opens the configured database
func NewConnection(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "postgres":
		// Use URL if provided, otherwise build DSN from individual fields
		dsn := cfg.URL
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		}
		dialector = postgres.Open(dsn)

	case "sqlite":
		dialector = sqlite.Open(sqlitePath(cfg.Path))

	case "sqlite-pure":
		dialector = sqlite.Dialector{DriverName: "sqlite", DSN: sqlitePath(cfg.Path)}

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying db: %w", err)
	}

	if cfg.Type == "postgres" {
		sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpen)
		sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdle)
		sqlDB.SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	} else {
		// SQLite allows one writer; an in-memory database also lives in a
		// single connection
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func sqlitePath(path string) string {
	if strings.TrimSpace(path) == "" {
		return ":memory:"
	}
	return path
}

// NewTestConnection creates an in-memory SQLite database for testing
func NewTestConnection() (*gorm.DB, error) {
	cfg := &config.DatabaseConfig{
		Type: "sqlite",
		Path: ":memory:",
	}

	db, err := NewConnection(cfg)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate test database: %w", err)
	}

	return db, nil
}

// AutoMigrate creates or updates every table
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(persistence.AllModels()...); err != nil {
		return err
	}
	// task keys used to ignore the stage entry; the old index would still
	// reject tasks owed to a stage re-entered after a revert
	migrator := db.Migrator()
	if migrator.HasIndex(&persistence.CropTaskModel{}, "idx_crop_task_key") {
		if err := migrator.DropIndex(&persistence.CropTaskModel{}, "idx_crop_task_key"); err != nil {
			return fmt.Errorf("failed to drop idx_crop_task_key: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
