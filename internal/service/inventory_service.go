package service

import (
	"context"
	"errors"
	"fmt"

	"medispa/internal/apierror"
	"medispa/internal/dto"
	"medispa/internal/model"
	"medispa/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryService is the only component that mutates product stock. The
// check-and-decrement is a single conditional UPDATE, so concurrent sales
// contending for the same units are serialized by the row and stock can
// never go negative.
type InventoryService interface {
	// ReserveStockTx decrements stock for a sale line inside the sale's
	// transaction. Services pass through without touching stock.
	ReserveStockTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, saleID uuid.UUID) error

	// AdjustStock applies a manual add/subtract/set outside of sales.
	AdjustStock(ctx context.Context, productID uuid.UUID, req dto.AdjustStockRequest) (*model.Product, error)

	ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error)
}

type inventoryService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
}

func NewInventoryService(products repository.ProductRepository, movements repository.StockMovementRepository) InventoryService {
	return &inventoryService{products: products, movements: movements}
}

func (s *inventoryService) ReserveStockTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, saleID uuid.UUID) error {
	if qty <= 0 {
		return fmt.Errorf("reserve stock: quantity must be positive, got %d", qty)
	}

	p, err := s.products.FindByIDTx(tx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.ErrNotFound
		}
		return err
	}
	if p.IsService() {
		return nil
	}

	ok, err := s.products.TryDecrementStockTx(tx, productID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return &apierror.InsufficientStockError{Product: p.Name}
	}

	ref := saleID
	return s.movements.CreateTx(tx, &model.StockMovement{
		ProductID:   productID,
		Kind:        model.MovementSale,
		Quantity:    -qty,
		StockBefore: p.Stock,
		StockAfter:  p.Stock - qty,
		Reason:      fmt.Sprintf("Venta %s", saleID),
		ReferenceID: &ref,
	})
}

func (s *inventoryService) AdjustStock(ctx context.Context, productID uuid.UUID, req dto.AdjustStockRequest) (*model.Product, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrNotFound
		}
		return nil, err
	}
	if p.IsService() {
		return nil, apierror.Business("los servicios no tienen inventario")
	}

	qty := req.Quantity
	err = runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		// Re-read inside the tx: the movement record needs a consistent
		// before/after pair.
		cur, err := s.products.FindByIDTx(txOr(tx, s.products.DB()), productID)
		if err != nil {
			return err
		}

		var after int
		switch req.Mode {
		case "add":
			after = cur.Stock + qty
			if after > model.MaxStock {
				return apierror.ErrStockLimitExceeded
			}
			if err := s.products.AddStockTx(txOr(tx, s.products.DB()), productID, qty); err != nil {
				return err
			}
		case "subtract":
			ok, err := s.products.TryDecrementStockTx(txOr(tx, s.products.DB()), productID, qty)
			if err != nil {
				return err
			}
			if !ok {
				return &apierror.InsufficientStockError{Product: cur.Name}
			}
			after = cur.Stock - qty
		case "set":
			if qty > model.MaxStock {
				return apierror.ErrStockLimitExceeded
			}
			after = qty
			if err := s.products.SetStockTx(txOr(tx, s.products.DB()), productID, qty); err != nil {
				return err
			}
		default:
			return fmt.Errorf("adjust stock: unknown mode %q", req.Mode)
		}

		reason := req.Reason
		if reason == "" {
			reason = "Ajuste manual de stock"
		}
		return s.movements.CreateTx(txOr(tx, s.products.DB()), &model.StockMovement{
			ProductID:   productID,
			Kind:        model.MovementManualAdjust,
			Quantity:    after - cur.Stock,
			StockBefore: cur.Stock,
			StockAfter:  after,
			Reason:      reason,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.products.FindByID(ctx, productID)
}

func (s *inventoryService) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	return s.movements.ListByProduct(ctx, productID, limit)
}
