package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stock movement kinds.
const (
	MovementSale         = "sale"
	MovementManualAdjust = "manual_adjust"
)

// StockMovement records every stock change on a product, created
// automatically when selling or adjusting inventory.
type StockMovement struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Kind        string     `gorm:"type:varchar(20);not null" json:"kind"`
	Quantity    int        `gorm:"not null" json:"quantity"` // positive = in, negative = out
	StockBefore int        `gorm:"not null" json:"stock_before"`
	StockAfter  int        `gorm:"not null" json:"stock_after"`
	Reason      string     `json:"reason"`
	ReferenceID *uuid.UUID `gorm:"type:uuid" json:"reference_id"` // sale_id when kind = sale
	CreatedAt   time.Time  `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (m *StockMovement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
