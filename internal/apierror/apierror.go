// Package apierror provides standardized error response structures for the
// API, plus the typed business-rule errors services return. All errors sent
// to clients go through this package so internal details (stack traces, DB
// errors) never leak.
package apierror

import (
	"errors"
	"fmt"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// ─── Business-rule errors ────────────────────────────────────────────────────
// Returned by services; handlers map them to HTTP statuses. Anything not in
// this taxonomy is treated as an infrastructure failure (500, generic body).

// ErrNotFound means a referenced entity does not exist.
var ErrNotFound = errors.New("recurso no encontrado")

// ErrInsufficientPoints means a loyalty redemption exceeds the balance.
var ErrInsufficientPoints = errors.New("puntos insuficientes")

// ErrStockLimitExceeded means a stock adjustment would exceed the maximum.
var ErrStockLimitExceeded = errors.New("el stock resultante excede el máximo permitido")

// ErrSlotTaken means the (staff, date, time) appointment slot is occupied.
var ErrSlotTaken = errors.New("el horario ya está reservado para ese profesional")

// ErrDuplicateEmail means the email is already registered.
var ErrDuplicateEmail = errors.New("el email ya está registrado")

// ErrInvalidCredentials means the email/password pair does not match.
var ErrInvalidCredentials = errors.New("credenciales inválidas")

// BusinessError marks an ad-hoc rule violation whose message is safe to
// show to the caller.
type BusinessError struct {
	Msg string
}

func (e *BusinessError) Error() string { return e.Msg }

// Business builds a BusinessError from a format string.
func Business(format string, args ...any) error {
	return &BusinessError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError names the product that could not be reserved.
type InsufficientStockError struct {
	Product string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para el producto: %s", e.Product)
}

// IsBusinessRule reports whether err belongs to the business-rule taxonomy,
// i.e. it is safe to show to the caller and pointless to retry.
func IsBusinessRule(err error) bool {
	var stockErr *InsufficientStockError
	var bizErr *BusinessError
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientPoints) ||
		errors.Is(err, ErrStockLimitExceeded) ||
		errors.Is(err, ErrSlotTaken) ||
		errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.As(err, &stockErr) ||
		errors.As(err, &bizErr)
}
