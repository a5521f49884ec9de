package repository

import (
	"context"
	"time"

	"medispa/internal/dto"
	"medispa/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	CreateItemTx(tx *gorm.DB, item *model.SaleItem) error
	UpdateTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	Statistics(ctx context.Context, from, to time.Time) (*dto.SaleStatistics, error)
	SumCompletedBetween(ctx context.Context, from, to time.Time, patientIDs []uuid.UUID) (decimal.Decimal, int64, error)
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func (r *saleRepo) CreateItemTx(tx *gorm.DB, item *model.SaleItem) error {
	return tx.Create(item).Error
}

func (r *saleRepo) UpdateTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Update("total", total).Error
}

// FindByID performs the read-after-write load of the full aggregate:
// sale + items + products + patient + operator.
func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Patient").
		Preload("User").
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *saleRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Sale{}).Where("id = ?", id).Update("status", status).Error
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.From != "" {
		q = q.Where("DATE(created_at) >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("DATE(created_at) <= ?", filter.To)
	}
	if filter.PatientID != "" {
		q = q.Where("patient_id = ?", filter.PatientID)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items.Product").Preload("Patient").Preload("User").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error

	return sales, total, err
}

func (r *saleRepo) Statistics(ctx context.Context, from, to time.Time) (*dto.SaleStatistics, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Sale{}).
			Where("created_at >= ? AND created_at < ? AND status = ?", from, to, model.SaleStatusCompleted)
	}

	stats := &dto.SaleStatistics{}

	var totalSales decimal.NullDecimal
	if err := base().Select("SUM(total)").Scan(&totalSales).Error; err != nil {
		return nil, err
	}
	stats.TotalSales = totalSales.Decimal

	if err := base().Count(&stats.SalesCount).Error; err != nil {
		return nil, err
	}
	if stats.SalesCount > 0 {
		stats.AverageSale = stats.TotalSales.Div(decimal.NewFromInt(stats.SalesCount)).Round(2)
	}

	if err := base().
		Select("payment_method, COUNT(*) AS count, SUM(total) AS total").
		Group("payment_method").
		Scan(&stats.ByPaymentMethod).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *saleRepo) SumCompletedBetween(ctx context.Context, from, to time.Time, patientIDs []uuid.UUID) (decimal.Decimal, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{}).
		Where("created_at >= ? AND created_at < ? AND status = ?", from, to, model.SaleStatusCompleted)
	if patientIDs != nil {
		q = q.Where("patient_id IN ?", patientIDs)
	}

	var sum decimal.NullDecimal
	if err := q.Session(&gorm.Session{}).Select("SUM(total)").Scan(&sum).Error; err != nil {
		return decimal.Zero, 0, err
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return decimal.Zero, 0, err
	}
	return sum.Decimal, count, nil
}
