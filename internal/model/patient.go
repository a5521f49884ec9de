package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient is the clinic's customer record. LoyaltyPoints is mutated only
// through the loyalty service; QRCode is assigned exactly once.
type Patient struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Name          string     `gorm:"index;not null" json:"name"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone         *string    `json:"phone"`
	Birthday      *time.Time `gorm:"type:date" json:"birthday"`
	Address       *string    `json:"address"`
	QRCode        *string    `gorm:"uniqueIndex" json:"qr_code"`
	LoyaltyPoints int        `gorm:"not null;default:0" json:"loyalty_points"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Photos    []PatientPhoto    `gorm:"foreignKey:PatientID" json:"photos,omitempty"`
	Documents []PatientDocument `gorm:"foreignKey:PatientID" json:"documents,omitempty"`
}

func (p *Patient) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// QRCodeFor derives the patient QR code from the identity and an email digest.
// Deterministic: the same patient always yields the same code.
func QRCodeFor(id uuid.UUID, email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	compact := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("PAT-%s-%s",
		strings.ToUpper(compact[:8]),
		strings.ToUpper(hex.EncodeToString(sum[:])[:6]))
}
