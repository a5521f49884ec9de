package tests

import (
	"testing"

	"medispa/internal/infra"
	"medispa/internal/model"
	"medispa/internal/repository"
	"medispa/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the full schema applied.
// One connection max: the shared in-memory DB disappears when its last
// connection closes.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, infra.RunMigrations(db))
	return db
}

// buildSaleService wires a real SaleService on top of the given database.
func buildSaleService(db *gorm.DB) service.SaleService {
	products := repository.NewProductRepository(db)
	movements := repository.NewStockMovementRepository(db)
	patients := repository.NewPatientRepository(db)
	sales := repository.NewSaleRepository(db)

	inventory := service.NewInventoryService(products, movements)
	loyalty := service.NewLoyaltyService(patients)
	return service.NewSaleService(sales, inventory, loyalty, products, patients, nil)
}

func seedTestProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:          name,
		Price:         decimal.NewFromFloat(price),
		Stock:         stock,
		LowStockAlert: 5,
		Kind:          model.KindPhysicalGood,
		Active:        true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedTestService(t *testing.T, db *gorm.DB, name string, price float64) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:   name,
		Price:  decimal.NewFromFloat(price),
		Kind:   model.KindService,
		Active: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedTestPatient(t *testing.T, db *gorm.DB, name, email string) *model.Patient {
	t.Helper()
	p := &model.Patient{Name: name, Email: email}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedTestStaff(t *testing.T, db *gorm.DB, name string) *model.StaffMember {
	t.Helper()
	s := &model.StaffMember{Name: name, Position: "Doctor"}
	require.NoError(t, db.Create(s).Error)
	return s
}
