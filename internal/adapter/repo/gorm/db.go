package gormrepo

import (
	"context"
	"embed"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(8)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// OpenAndMigrate opens the database and applies the embedded schema.
func OpenAndMigrate(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := OpenPostgres(dsn)
	if err != nil {
		return nil, err
	}
	if err := ApplyMigrations(ctx, db, migrations, "migrations"); err != nil {
		return nil, err
	}
	return db, nil
}
