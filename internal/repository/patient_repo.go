package repository

import (
	"context"
	"time"

	"medispa/internal/dto"
	"medispa/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PatientRepository defines the data access contract for patients, including
// the atomic loyalty-point primitives. Loyalty points are only ever mutated
// through TryAddPointsTx / TryRedeemPoints.
type PatientRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.Patient) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Patient, error)
	FindByEmail(ctx context.Context, email string) (*model.Patient, error)
	List(ctx context.Context, filter dto.PatientFilter) ([]model.Patient, int64, error)
	Update(ctx context.Context, p *model.Patient) error

	// Delete removes the patient and its owned records (photos, documents,
	// appointments) and nullifies the patient reference on sales.
	Delete(ctx context.Context, id uuid.UUID) error

	// AssignQRCode sets the QR code only when none is assigned yet; the
	// WHERE guard makes repeated calls no-ops (idempotent assignment).
	AssignQRCode(ctx context.Context, id uuid.UUID, code string) error

	// AddPointsTx atomically increments the balance inside a transaction.
	AddPointsTx(tx *gorm.DB, id uuid.UUID, points int) error

	// TryRedeemPoints performs the conditional decrement guarding the
	// non-negative balance invariant. Returns false when balance < points.
	TryRedeemPoints(ctx context.Context, id uuid.UUID, points int) (bool, error)

	CountCreatedBetween(ctx context.Context, from, to time.Time, ids []uuid.UUID) (int64, error)
	CountWithRepeatSales(ctx context.Context, ids []uuid.UUID) (total int64, returning int64, err error)

	DB() *gorm.DB
}

type patientRepo struct{ db *gorm.DB }

func NewPatientRepository(db *gorm.DB) PatientRepository { return &patientRepo{db: db} }

func (r *patientRepo) DB() *gorm.DB { return r.db }

func (r *patientRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Patient) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(p).Error
}

func (r *patientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var p model.Patient
	err := r.db.WithContext(ctx).Preload("Photos").Preload("Documents").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *patientRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Patient, error) {
	var p model.Patient
	err := tx.First(&p, "id = ?", id).Error
	return &p, err
}

func (r *patientRepo) FindByEmail(ctx context.Context, email string) (*model.Patient, error) {
	var p model.Patient
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error
	return &p, err
}

func (r *patientRepo) List(ctx context.Context, filter dto.PatientFilter) ([]model.Patient, int64, error) {
	var patients []model.Patient
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Patient{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}
	// Doctor visibility: restrict to the patients the doctor attends.
	if filter.VisibleIDs != nil {
		q = q.Where("id IN ?", filter.VisibleIDs)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&patients).Error
	return patients, total, err
}

func (r *patientRepo) Update(ctx context.Context, p *model.Patient) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *patientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("patient_id = ?", id).Delete(&model.PatientPhoto{}).Error; err != nil {
			return err
		}
		if err := tx.Where("patient_id = ?", id).Delete(&model.PatientDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("patient_id = ?", id).Delete(&model.Appointment{}).Error; err != nil {
			return err
		}
		// Sales survive for accounting — detach the patient reference.
		if err := tx.Model(&model.Sale{}).Where("patient_id = ?", id).
			Update("patient_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Patient{}, "id = ?", id).Error
	})
}

func (r *patientRepo) AssignQRCode(ctx context.Context, id uuid.UUID, code string) error {
	return r.db.WithContext(ctx).Model(&model.Patient{}).
		Where("id = ? AND qr_code IS NULL", id).
		Update("qr_code", code).Error
}

func (r *patientRepo) AddPointsTx(tx *gorm.DB, id uuid.UUID, points int) error {
	return tx.Model(&model.Patient{}).Where("id = ?", id).
		Update("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error
}

func (r *patientRepo) TryRedeemPoints(ctx context.Context, id uuid.UUID, points int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Patient{}).
		Where("id = ? AND loyalty_points >= ?", id, points).
		Update("loyalty_points", gorm.Expr("loyalty_points - ?", points))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *patientRepo) CountCreatedBetween(ctx context.Context, from, to time.Time, ids []uuid.UUID) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Patient{}).
		Where("created_at >= ? AND created_at < ?", from, to)
	if ids != nil {
		q = q.Where("id IN ?", ids)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *patientRepo) CountWithRepeatSales(ctx context.Context, ids []uuid.UUID) (int64, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Patient{})
	if ids != nil {
		q = q.Where("id IN ?", ids)
	}
	if err := q.Count(&total).Error; err != nil {
		return 0, 0, err
	}

	var returning int64
	sub := r.db.Model(&model.Sale{}).
		Select("patient_id").
		Where("patient_id IS NOT NULL AND status = ?", model.SaleStatusCompleted).
		Group("patient_id").
		Having("COUNT(*) >= 2")
	q2 := r.db.WithContext(ctx).Model(&model.Patient{}).Where("id IN (?)", sub)
	if ids != nil {
		q2 = q2.Where("id IN ?", ids)
	}
	if err := q2.Count(&returning).Error; err != nil {
		return 0, 0, err
	}
	return total, returning, nil
}
