package repository

import (
	"context"

	"medispa/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, u *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	DB() *gorm.DB
}

type userRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func (r *userRepo) DB() *gorm.DB { return r.db }

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, u *model.User) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(u).Error
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return &u, err
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	return &u, err
}

// StaffRepository resolves the professional profile behind a doctor account.
type StaffRepository interface {
	Create(ctx context.Context, s *model.StaffMember) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StaffMember, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.StaffMember, error)
	List(ctx context.Context) ([]model.StaffMember, error)
}

type staffRepo struct{ db *gorm.DB }

func NewStaffRepository(db *gorm.DB) StaffRepository { return &staffRepo{db: db} }

func (r *staffRepo) Create(ctx context.Context, s *model.StaffMember) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *staffRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	var s model.StaffMember
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *staffRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.StaffMember, error) {
	var s model.StaffMember
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	return &s, err
}

func (r *staffRepo) List(ctx context.Context) ([]model.StaffMember, error) {
	var staff []model.StaffMember
	err := r.db.WithContext(ctx).Order("name ASC").Find(&staff).Error
	return staff, err
}
