package repository

import (
	"context"
	"time"

	"medispa/internal/dto"
	"medispa/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	CreateTx(tx *gorm.DB, a *model.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filter dto.AppointmentFilter) ([]model.Appointment, int64, error)
	UpdateTx(tx *gorm.DB, a *model.Appointment) error
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error

	// SlotTakenTx reports whether a non-cancelled appointment already occupies
	// the (staff, date, time) slot. exclude skips the appointment being
	// updated so it does not collide with itself.
	SlotTakenTx(tx *gorm.DB, staffID uuid.UUID, date time.Time, timeStr string, exclude uuid.UUID) (bool, error)

	// PatientIDsForStaff returns the distinct patients a staff member attends;
	// used to scope doctor visibility.
	PatientIDsForStaff(ctx context.Context, staffID uuid.UUID) ([]uuid.UUID, error)

	CountOnDate(ctx context.Context, date time.Time, staffID *uuid.UUID) (int64, error)
	UpcomingOnDate(ctx context.Context, date time.Time, staffID *uuid.UUID, limit int) ([]model.Appointment, error)

	DB() *gorm.DB
}

type appointmentRepo struct{ db *gorm.DB }

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository { return &appointmentRepo{db: db} }

func (r *appointmentRepo) DB() *gorm.DB { return r.db }

func (r *appointmentRepo) CreateTx(tx *gorm.DB, a *model.Appointment) error {
	return tx.Create(a).Error
}

func (r *appointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	err := r.db.WithContext(ctx).Preload("Patient").Preload("StaffMember").First(&a, "id = ?", id).Error
	return &a, err
}

func (r *appointmentRepo) List(ctx context.Context, filter dto.AppointmentFilter) ([]model.Appointment, int64, error) {
	var appointments []model.Appointment
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Appointment{})

	if filter.Date != "" {
		q = q.Where("DATE(appointment_date) = ?", filter.Date)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PatientID != "" {
		q = q.Where("patient_id = ?", filter.PatientID)
	}
	if filter.StaffMemberID != "" {
		q = q.Where("staff_member_id = ?", filter.StaffMemberID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Patient").Preload("StaffMember").
		Order("appointment_date DESC").Order("appointment_time DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&appointments).Error

	return appointments, total, err
}

func (r *appointmentRepo) UpdateTx(tx *gorm.DB, a *model.Appointment) error {
	return tx.Save(a).Error
}

func (r *appointmentRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Appointment{}).Where("id = ?", id).Update("status", status).Error
}

func (r *appointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Appointment{}, "id = ?", id).Error
}

func (r *appointmentRepo) SlotTakenTx(tx *gorm.DB, staffID uuid.UUID, date time.Time, timeStr string, exclude uuid.UUID) (bool, error) {
	var n int64
	q := tx.Model(&model.Appointment{}).
		Where("staff_member_id = ? AND DATE(appointment_date) = DATE(?) AND appointment_time = ?", staffID, date, timeStr).
		Where("status != ?", model.AppointmentCancelled)
	if exclude != uuid.Nil {
		q = q.Where("id != ?", exclude)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *appointmentRepo) PatientIDsForStaff(ctx context.Context, staffID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("staff_member_id = ?", staffID).
		Distinct("patient_id").
		Pluck("patient_id", &ids).Error
	return ids, err
}

func (r *appointmentRepo) CountOnDate(ctx context.Context, date time.Time, staffID *uuid.UUID) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("DATE(appointment_date) = DATE(?)", date).
		Where("status IN ?", []string{model.AppointmentScheduled, model.AppointmentConfirmed})
	if staffID != nil {
		q = q.Where("staff_member_id = ?", *staffID)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *appointmentRepo) UpcomingOnDate(ctx context.Context, date time.Time, staffID *uuid.UUID, limit int) ([]model.Appointment, error) {
	var appointments []model.Appointment
	q := r.db.WithContext(ctx).Model(&model.Appointment{}).
		Preload("Patient").Preload("StaffMember").
		Where("DATE(appointment_date) = DATE(?)", date).
		Where("status IN ?", []string{model.AppointmentScheduled, model.AppointmentConfirmed})
	if staffID != nil {
		q = q.Where("staff_member_id = ?", *staffID)
	}
	err := q.Order("appointment_time ASC").Limit(limit).Find(&appointments).Error
	return appointments, err
}
