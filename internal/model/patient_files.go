package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Photo types
const (
	PhotoBefore = "before"
	PhotoAfter  = "after"
	PhotoOther  = "other"
)

// PatientPhoto stores before/after treatment photos. Files live on disk
// (or object storage); only the relative path is persisted.
type PatientPhoto struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID uuid.UUID `gorm:"type:uuid;not null;index" json:"patient_id"`
	Path      string    `gorm:"not null" json:"path"`
	Type      string    `gorm:"type:varchar(10);not null;default:'other'" json:"type"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *PatientPhoto) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PatientDocument is an uploaded document (consent forms, prescriptions…)
// optionally requiring the patient's signature.
type PatientDocument struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"patient_id"`
	Name              string     `gorm:"not null" json:"name"`
	Path              string     `gorm:"not null" json:"path"`
	Type              string     `gorm:"type:varchar(20);not null;default:'other'" json:"type"`
	RequiresSignature bool       `gorm:"not null;default:false" json:"requires_signature"`
	IsSigned          bool       `gorm:"not null;default:false" json:"is_signed"`
	SignaturePath     *string    `json:"signature_path"`
	SignedAt          *time.Time `json:"signed_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (d *PatientDocument) BeforeCreate(_ *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
