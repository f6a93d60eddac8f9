package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config selects the database: postgres when DatabaseURL is set, sqlite otherwise
type Config struct {
	DatabaseURL string
	SQLitePath  string
	// Verbose turns on gorm's SQL logging
	Verbose bool
}

// Open connects to the configured database and migrates the given models
func Open(cfg Config, models ...interface{}) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.Verbose {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	if cfg.DatabaseURL != "" {
		gormConfig.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseURL,
			PreferSimpleProtocol: true,
		}), gormConfig)
	} else {
		dbPath := cfg.SQLitePath
		if dbPath == "" {
			dbPath = "staffmonitr.db"
		}
		db, err = gorm.Open(sqlite.Open(dbPath), gormConfig)
	}

	if err != nil {
		return nil, fmt.Errorf("database.Open -> failed to connect database -> %w", err)
	}

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("database.Open -> failed to migrate -> %w", err)
		}
	}

	return db, nil
}
