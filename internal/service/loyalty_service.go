package service

import (
	"context"
	"errors"
	"fmt"

	"medispa/internal/apierror"
	"medispa/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxPointsPerCall bounds a single accrual; larger awards are almost
// certainly input mistakes.
const maxPointsPerCall = 10000

// pointsPerUnit: 1 loyalty point per 10 currency units of a completed sale.
var pointsPerUnit = decimal.NewFromInt(10)

// LoyaltyService maintains the non-negative point balance per patient.
// Balances are only ever mutated through these operations.
type LoyaltyService interface {
	AddPoints(ctx context.Context, patientID uuid.UUID, points int) (int, error)
	// AddPointsTx is the variant used inside the sale transaction.
	AddPointsTx(tx *gorm.DB, patientID uuid.UUID, points int) error
	RedeemPoints(ctx context.Context, patientID uuid.UUID, points int) (int, error)
}

type loyaltyService struct {
	patients repository.PatientRepository
}

func NewLoyaltyService(patients repository.PatientRepository) LoyaltyService {
	return &loyaltyService{patients: patients}
}

// PointsForTotal computes the accrual for a completed sale: floor(total/10),
// never negative.
func PointsForTotal(total decimal.Decimal) int {
	if total.Sign() <= 0 {
		return 0
	}
	return int(total.Div(pointsPerUnit).IntPart())
}

func validatePoints(points int) error {
	if points <= 0 {
		return fmt.Errorf("loyalty: points must be positive, got %d", points)
	}
	if points > maxPointsPerCall {
		return fmt.Errorf("loyalty: points exceed per-call bound of %d", maxPointsPerCall)
	}
	return nil
}

func (s *loyaltyService) AddPoints(ctx context.Context, patientID uuid.UUID, points int) (int, error) {
	if err := validatePoints(points); err != nil {
		return 0, err
	}
	p, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apierror.ErrNotFound
		}
		return 0, err
	}
	if err := s.patients.AddPointsTx(s.patients.DB(), patientID, points); err != nil {
		return 0, err
	}
	return p.LoyaltyPoints + points, nil
}

func (s *loyaltyService) AddPointsTx(tx *gorm.DB, patientID uuid.UUID, points int) error {
	if err := validatePoints(points); err != nil {
		return err
	}
	return s.patients.AddPointsTx(tx, patientID, points)
}

// RedeemPoints decrements the balance only when it covers the redemption.
// The conditional UPDATE makes concurrent redemptions safe: two calls whose
// combined total exceeds the balance cannot both succeed.
func (s *loyaltyService) RedeemPoints(ctx context.Context, patientID uuid.UUID, points int) (int, error) {
	if err := validatePoints(points); err != nil {
		return 0, err
	}
	if _, err := s.patients.FindByID(ctx, patientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apierror.ErrNotFound
		}
		return 0, err
	}

	ok, err := s.patients.TryRedeemPoints(ctx, patientID, points)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apierror.ErrInsufficientPoints
	}

	p, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		return 0, err
	}
	return p.LoyaltyPoints, nil
}
