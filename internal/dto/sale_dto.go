package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	From      string `form:"from"       validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to"         validate:"omitempty,datetime=2006-01-02"`
	PatientID string `form:"patient_id" validate:"omitempty,uuid"`
	Status    string `form:"status"     validate:"omitempty,oneof=pending completed cancelled all"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type CreateSaleRequest struct {
	PatientID     *string           `json:"patient_id"     validate:"omitempty,uuid"`
	Discount      decimal.Decimal   `json:"discount"       validate:"min=0"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card transfer other"`
	Items         []SaleItemRequest `json:"items"          validate:"required,min=1,dive"`
	Meta          map[string]any    `json:"meta"`
}

type UpdateSaleStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed cancelled"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ProductID  string          `json:"product_id"`
	Product    string          `json:"product"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	UserID        *string            `json:"user_id"`
	PatientID     *string            `json:"patient_id"`
	PatientName   string             `json:"patient_name,omitempty"`
	Items         []SaleItemResponse `json:"items"`
	Total         decimal.Decimal    `json:"total"`
	Discount      decimal.Decimal    `json:"discount"`
	PaymentMethod string             `json:"payment_method"`
	Status        string             `json:"status"`
	PointsEarned  int                `json:"points_earned"`
	CreatedAt     string             `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Statistics ──────────────────────────────────────────────────────────────

type PaymentMethodStat struct {
	PaymentMethod string          `json:"payment_method"`
	Count         int64           `json:"count"`
	Total         decimal.Decimal `json:"total"`
}

type SaleStatistics struct {
	TotalSales      decimal.Decimal     `json:"total_sales"`
	SalesCount      int64               `json:"sales_count"`
	AverageSale     decimal.Decimal     `json:"average_sale"`
	ByPaymentMethod []PaymentMethodStat `json:"by_payment_method"`
}
