// Package database owns connection setup and schema migration for the
// reading lists service.
//
// # Architecture
//
// The data access layer is organized into domain sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations
//	├── readinglists/    # Lists, entries, ordering, sync, purge
//	└── projects/        # Project registry
//
// Each sub-package provides a Repository constructed from *gorm.DB, so the
// write and read connections can be wired independently.
package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wikimedia/readinglists/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Project{},
		&entities.List{},
		&entities.ListEntry{},
		&entities.ListSortkey{},
		&entities.ListEntrySortkey{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
