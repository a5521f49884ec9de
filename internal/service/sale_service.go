package service

import (
	"context"
	"errors"
	"time"

	"medispa/internal/apierror"
	"medispa/internal/dto"
	"medispa/internal/model"
	"medispa/internal/repository"
	"medispa/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	ProcessSale(ctx context.Context, operatorID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	CancelSale(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
	Statistics(ctx context.Context, from, to time.Time) (*dto.SaleStatistics, error)
}

type saleService struct {
	repo       repository.SaleRepository
	inventory  InventoryService
	loyalty    LoyaltyService
	products   repository.ProductRepository
	patients   repository.PatientRepository
	dispatcher *worker.Dispatcher
}

func NewSaleService(
	repo repository.SaleRepository,
	inventory InventoryService,
	loyalty LoyaltyService,
	products repository.ProductRepository,
	patients repository.PatientRepository,
	dispatcher *worker.Dispatcher,
) SaleService {
	return &saleService{
		repo:       repo,
		inventory:  inventory,
		loyalty:    loyalty,
		products:   products,
		patients:   patients,
		dispatcher: dispatcher,
	}
}

// ── ProcessSale ───────────────────────────────────────────────────────────────
// The single entry point that turns a cart into a persisted, consistent sale:
//   1. Resolve patient and products (pre-flight, outside the tx)
//   2. BEGIN TX: create sale (completed, total 0)
//   3. Per line, in submitted order: reserve stock, snapshot unit price,
//      persist the line item, accumulate the total
//   4. total = sum(lines) − discount, clamped at zero; update the sale
//   5. Award loyalty points (floor(total/10)) when a patient is attached
//   6. COMMIT — any failure in 2–5 rolls the whole unit of work back
//   7. Read-after-write reload of the aggregate; async receipt (best effort)

func (s *saleService) ProcessSale(ctx context.Context, operatorID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	// 1. Pre-flight resolution. Business-rule failures here abort before any
	// state is touched.
	var patient *model.Patient
	if req.PatientID != nil {
		pid, err := uuid.Parse(*req.PatientID)
		if err != nil {
			return nil, apierror.Business("patient_id inválido")
		}
		patient, err = s.patients.FindByID(ctx, pid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.ErrNotFound
			}
			return nil, err
		}
	}

	type resolvedItem struct {
		productID uuid.UUID
		name      string
		price     decimal.Decimal
		quantity  int
	}
	resolved := make([]resolvedItem, 0, len(req.Items))
	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, apierror.Business("product_id inválido")
		}
		p, err := s.products.FindByID(ctx, pid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.ErrNotFound
			}
			return nil, err
		}
		if !p.Active {
			return nil, apierror.Business("el producto %s está inactivo y no puede venderse", p.Name)
		}
		resolved = append(resolved, resolvedItem{
			productID: p.ID,
			name:      p.Name,
			price:     p.Price,
			quantity:  item.Quantity,
		})
	}

	// 2–6. Atomic unit of work.
	var sale model.Sale
	var pointsEarned int
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var operator *uuid.UUID
		if operatorID != uuid.Nil {
			operator = &operatorID
		}
		sale = model.Sale{
			UserID:        operator,
			Discount:      req.Discount,
			PaymentMethod: req.PaymentMethod,
			Status:        model.SaleStatusCompleted,
			Total:         decimal.Zero,
			Meta:          req.Meta,
		}
		if patient != nil {
			pid := patient.ID
			sale.PatientID = &pid
		}
		if err := s.repo.CreateTx(tx, &sale); err != nil {
			return err
		}

		total := decimal.Zero
		for _, r := range resolved {
			// The conditional decrement inside ReserveStockTx is what keeps
			// concurrent sales from overselling; on failure the whole tx is
			// rolled back, so earlier lines leave no trace.
			if err := s.inventory.ReserveStockTx(ctx, tx, r.productID, r.quantity, sale.ID); err != nil {
				return err
			}

			lineTotal := r.price.Mul(decimal.NewFromInt(int64(r.quantity)))
			item := model.SaleItem{
				SaleID:     sale.ID,
				ProductID:  r.productID,
				Quantity:   r.quantity,
				UnitPrice:  r.price,
				TotalPrice: lineTotal,
			}
			if err := s.repo.CreateItemTx(tx, &item); err != nil {
				return err
			}
			total = total.Add(lineTotal)
		}

		// Discount may not drive the total negative; clamp at zero.
		total = total.Sub(req.Discount)
		if total.IsNegative() {
			total = decimal.Zero
		}
		if err := s.repo.UpdateTotalTx(tx, sale.ID, total); err != nil {
			return err
		}
		sale.Total = total

		if patient != nil {
			if points := PointsForTotal(total); points > 0 {
				if err := s.loyalty.AddPointsTx(tx, patient.ID, points); err != nil {
					return err
				}
				pointsEarned = points
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// 7. Read-after-write: assemble the aggregate explicitly after commit.
	full, err := s.repo.FindByID(ctx, sale.ID)
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		payload := worker.ReceiptJobPayload{SaleID: sale.ID.String()}
		if patient != nil {
			payload.PatientEmail = patient.Email
		}
		_ = s.dispatcher.EnqueueReceipt(ctx, payload)
	}

	resp := saleToResponse(full)
	resp.PointsEarned = pointsEarned
	return resp, nil
}

// ── Status transitions ────────────────────────────────────────────────────────
// pending → completed, pending → cancelled, completed → cancelled.
// cancelled is terminal; a sale never returns to pending.

func canTransition(from, to string) bool {
	switch from {
	case model.SaleStatusPending:
		return to == model.SaleStatusCompleted || to == model.SaleStatusCancelled
	case model.SaleStatusCompleted:
		return to == model.SaleStatusCancelled
	default:
		return false
	}
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrNotFound
		}
		return nil, err
	}
	return saleToResponse(sale), nil
}

// CancelSale marks the sale cancelled. Stock and loyalty points are NOT
// reversed: cancellations are rare and reconciled manually.
func (s *saleService) CancelSale(ctx context.Context, id uuid.UUID) error {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.ErrNotFound
		}
		return err
	}
	if !canTransition(sale.Status, model.SaleStatusCancelled) {
		return apierror.Business("la venta ya está %s", sale.Status)
	}
	return s.repo.UpdateStatus(ctx, id, model.SaleStatusCancelled)
}

func (s *saleService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrNotFound
		}
		return nil, err
	}
	if sale.Status != status {
		if !canTransition(sale.Status, status) {
			return nil, apierror.Business("transición de estado inválida de %s a %s", sale.Status, status)
		}
		if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
			return nil, err
		}
	}
	return s.GetSale(ctx, id)
}

func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *saleService) Statistics(ctx context.Context, from, to time.Time) (*dto.SaleStatistics, error) {
	return s.repo.Statistics(ctx, from, to)
}

func saleToResponse(v *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(v.Items))
	for _, item := range v.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, dto.SaleItemResponse{
			ProductID:  item.ProductID.String(),
			Product:    name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}

	resp := &dto.SaleResponse{
		ID:            v.ID.String(),
		Items:         items,
		Total:         v.Total,
		Discount:      v.Discount,
		PaymentMethod: v.PaymentMethod,
		Status:        v.Status,
		CreatedAt:     v.CreatedAt.Format(time.RFC3339),
	}
	if v.UserID != nil {
		uid := v.UserID.String()
		resp.UserID = &uid
	}
	if v.PatientID != nil {
		pid := v.PatientID.String()
		resp.PatientID = &pid
	}
	if v.Patient != nil {
		resp.PatientName = v.Patient.Name
	}
	return resp
}
