package dto

import "github.com/shopspring/decimal"

// ProductFilter is bound from the query string of GET /v1/products.
type ProductFilter struct {
	Kind   string `form:"kind"   validate:"omitempty,oneof=physical_good service"`
	Active string `form:"active"` // "false" | "all" | default active
	Search string `form:"search"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=200"`
}

type CreateProductRequest struct {
	Name          string          `json:"name"        validate:"required,max=255"`
	SKU           *string         `json:"sku"         validate:"omitempty,max=64"`
	Description   *string         `json:"description"`
	Price         decimal.Decimal `json:"price"       validate:"min=0"`
	Stock         int             `json:"stock"       validate:"min=0,max=999999"`
	LowStockAlert int             `json:"low_stock_alert" validate:"min=0"`
	Kind          string          `json:"kind"        validate:"required,oneof=physical_good service"`
	Active        *bool           `json:"active"`
}

type UpdateProductRequest struct {
	Name          string           `json:"name"        validate:"omitempty,max=255"`
	SKU           *string          `json:"sku"         validate:"omitempty,max=64"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"       validate:"omitempty,min=0"`
	LowStockAlert *int             `json:"low_stock_alert" validate:"omitempty,min=0"`
	Kind          string           `json:"kind"        validate:"omitempty,oneof=physical_good service"`
	Active        *bool            `json:"active"`
}

// AdjustStockRequest mutates inventory outside of sales.
// Mode subtract fails when it would drive stock negative; add/set fail when
// the result would exceed the configured maximum.
type AdjustStockRequest struct {
	Quantity int    `json:"quantity" validate:"required,min=1"`
	Mode     string `json:"mode"     validate:"required,oneof=add subtract set"`
	Reason   string `json:"reason"   validate:"omitempty,max=255"`
}

type ProductResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	SKU           *string         `json:"sku"`
	Description   *string         `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	LowStockAlert int             `json:"low_stock_alert"`
	Kind          string          `json:"kind"`
	Active        bool            `json:"active"`
	CreatedAt     string          `json:"created_at"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
