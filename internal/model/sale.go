package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale statuses. "cancelled" is terminal; a sale is never physically deleted.
const (
	SaleStatusPending   = "pending"
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

// Payment methods accepted at the point of sale.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentOther    = "other"
)

// Sale is one point-of-sale transaction. Total is computed server-side from
// the line items minus the discount, never trusted from the request.
type Sale struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	PatientID     *uuid.UUID      `gorm:"type:uuid;index" json:"patient_id"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	Discount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	PaymentMethod string          `gorm:"type:varchar(10);not null;default:'cash'" json:"payment_method"`
	Status        string          `gorm:"type:varchar(10);not null;default:'completed';index" json:"status"`
	Meta          map[string]any  `gorm:"serializer:json" json:"meta"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Items   []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`
	Patient *Patient   `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	User    *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (s *Sale) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SaleItem is one line of a sale. UnitPrice is a snapshot of the product
// price at transaction time and never changes afterwards.
type SaleItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SaleID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (i *SaleItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
