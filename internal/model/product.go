package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product kinds. Services never track stock; physical goods do.
const (
	KindPhysicalGood = "physical_good"
	KindService      = "service"
)

// MaxStock is the upper bound for any stock adjustment (add/set).
const MaxStock = 999999

// Product represents a sellable catalog entry: a retail product with
// inventory, or a treatment/service without it.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string          `gorm:"index;not null" json:"name"`
	SKU           *string         `gorm:"uniqueIndex" json:"sku"`
	Description   *string         `json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock         int             `gorm:"not null;default:0" json:"stock"`
	LowStockAlert int             `gorm:"not null;default:5" json:"low_stock_alert"`
	Kind          string          `gorm:"type:varchar(20);not null;default:'physical_good'" json:"kind"`
	Active        bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Product) IsService() bool { return p.Kind == KindService }
