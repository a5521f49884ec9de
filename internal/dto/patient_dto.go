package dto

import "github.com/google/uuid"

// PatientFilter is bound from the query string of GET /v1/patients.
// VisibleIDs is filled server-side when the caller is a doctor.
type PatientFilter struct {
	Search string `form:"search"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=200"`

	VisibleIDs []uuid.UUID `form:"-"`
}

type CreatePatientRequest struct {
	Name     string  `json:"name"     validate:"required,max=255"`
	Email    string  `json:"email"    validate:"required,email,max=255"`
	Phone    *string `json:"phone"    validate:"omitempty,max=20"`
	Birthday *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Address  *string `json:"address"  validate:"omitempty,max=500"`
}

type UpdatePatientRequest struct {
	Name     string  `json:"name"     validate:"omitempty,max=255"`
	Email    string  `json:"email"    validate:"omitempty,email,max=255"`
	Phone    *string `json:"phone"    validate:"omitempty,max=20"`
	Birthday *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Address  *string `json:"address"  validate:"omitempty,max=500"`
}

// LoyaltyRequest covers both add and redeem endpoints; 10,000 is the
// per-call accrual bound.
type LoyaltyRequest struct {
	Points int `json:"points" validate:"required,min=1,max=10000"`
}

type LoyaltyResponse struct {
	Message       string `json:"message"`
	LoyaltyPoints int    `json:"loyalty_points"`
}

type UploadPhotoForm struct {
	Type  string  `form:"type"  validate:"required,oneof=before after other"`
	Notes *string `form:"notes"`
}

type UploadDocumentForm struct {
	Name              string `form:"name" validate:"required,max=255"`
	Type              string `form:"type" validate:"required,oneof=consent contract prescription lab_result other"`
	RequiresSignature bool   `form:"requires_signature"`
}

type PatientResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         *string `json:"phone"`
	Birthday      *string `json:"birthday"`
	Address       *string `json:"address"`
	QRCode        *string `json:"qr_code"`
	LoyaltyPoints int     `json:"loyalty_points"`
	CreatedAt     string  `json:"created_at"`
}

type PatientListResponse struct {
	Data  []PatientResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
