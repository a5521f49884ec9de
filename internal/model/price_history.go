package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Price change reasons.
const (
	PriceChangeManual = "manual"
)

// PriceHistory records every price change on a product. Rows are append-only;
// sale lines snapshot their own unit price, this table answers "who changed
// the list price, when, and from what".
type PriceHistory struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	PriceBefore decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_before"`
	PriceAfter  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_after"`
	ChangedBy   *uuid.UUID      `gorm:"type:uuid" json:"changed_by"`
	Reason      string          `gorm:"not null;default:'manual'" json:"reason"`
	CreatedAt   time.Time       `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (h *PriceHistory) BeforeCreate(_ *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
