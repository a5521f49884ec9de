package infra

import (
	"fmt"

	"medispa/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs
// AutoMigrate to create / update all tables.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return db, nil
}

// RunMigrations applies the schema via GORM AutoMigrate. Shared between the
// server startup and the test suites, so every environment sees the same
// tables.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.StaffMember{},
		&model.Patient{},
		&model.PatientPhoto{},
		&model.PatientDocument{},
		&model.Product{},
		&model.StockMovement{},
		&model.PriceHistory{},
		&model.Sale{},
		&model.SaleItem{},
		&model.Appointment{},
	)
}
