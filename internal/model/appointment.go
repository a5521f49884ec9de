package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment statuses.
const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Appointment books a patient with a staff member for a service at a
// date/time slot. Two non-cancelled appointments never share the same
// (staff, date, time) triple.
type Appointment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"patient_id"`
	StaffMemberID   *uuid.UUID `gorm:"type:uuid;index" json:"staff_member_id"`
	AppointmentDate time.Time  `gorm:"type:date;not null;index" json:"appointment_date"`
	AppointmentTime string     `gorm:"type:varchar(5);not null" json:"appointment_time"` // HH:MM
	Service         string     `gorm:"not null" json:"service"`
	Status          string     `gorm:"type:varchar(10);not null;default:'scheduled';index" json:"status"`
	Notes           *string    `json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Patient     *Patient     `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	StaffMember *StaffMember `gorm:"foreignKey:StaffMemberID" json:"staff_member,omitempty"`
}

func (a *Appointment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
