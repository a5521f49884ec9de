package service

import (
	"context"
	"errors"
	"time"

	"medispa/internal/apierror"
	"medispa/internal/dto"
	"medispa/internal/model"
	"medispa/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, changedBy *uuid.UUID, req dto.UpdateProductRequest) (*model.Product, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Movements(ctx context.Context, id uuid.UUID, limit int) ([]model.StockMovement, error)
	PriceHistory(ctx context.Context, id uuid.UUID, limit int) ([]model.PriceHistory, error)
}

type productService struct {
	repo      repository.ProductRepository
	movements repository.StockMovementRepository
	priceLog  repository.PriceHistoryRepository
}

func NewProductService(
	repo repository.ProductRepository,
	movements repository.StockMovementRepository,
	priceLog repository.PriceHistoryRepository,
) ProductService {
	return &productService{repo: repo, movements: movements, priceLog: priceLog}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*model.Product, error) {
	if req.Kind == model.KindService && req.Stock != 0 {
		return nil, apierror.Business("los servicios no tienen inventario")
	}
	if req.Stock > model.MaxStock {
		return nil, apierror.ErrStockLimitExceeded
	}

	p := &model.Product{
		Name:          req.Name,
		SKU:           req.SKU,
		Description:   req.Description,
		Price:         req.Price,
		Stock:         req.Stock,
		LowStockAlert: req.LowStockAlert,
		Kind:          req.Kind,
		Active:        true,
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if p.LowStockAlert == 0 {
		p.LowStockAlert = 5
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, *ProductToResponse(&products[i]))
	}
	return &dto.ProductListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, changedBy *uuid.UUID, req dto.UpdateProductRequest) (*model.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	priceBefore := p.Price
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.SKU != nil {
		p.SKU = req.SKU
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.LowStockAlert != nil {
		p.LowStockAlert = *req.LowStockAlert
	}
	if req.Kind != "" {
		// A physical good with remaining stock cannot become a service;
		// inventory would be stranded.
		if req.Kind == model.KindService && p.Stock > 0 {
			return nil, apierror.Business("el producto tiene stock y no puede convertirse en servicio")
		}
		p.Kind = req.Kind
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	// Append-only audit row per effective price change.
	if s.priceLog != nil && !p.Price.Equal(priceBefore) {
		entry := &model.PriceHistory{
			ProductID:   p.ID,
			PriceBefore: priceBefore,
			PriceAfter:  p.Price,
			ChangedBy:   changedBy,
			Reason:      model.PriceChangeManual,
		}
		if err := s.priceLog.Create(ctx, entry); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Deactivate soft-deletes a product: it disappears from default listings and
// cannot be sold, but stays referenced by historical sale lines.
func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *productService) Reactivate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Reactivate(ctx, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *productService) Movements(ctx context.Context, id uuid.UUID, limit int) ([]model.StockMovement, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.movements.ListByProduct(ctx, id, limit)
}

func (s *productService) PriceHistory(ctx context.Context, id uuid.UUID, limit int) ([]model.PriceHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.priceLog.ListByProduct(ctx, id, limit)
}

func ProductToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		SKU:           p.SKU,
		Description:   p.Description,
		Price:         p.Price,
		Stock:         p.Stock,
		LowStockAlert: p.LowStockAlert,
		Kind:          p.Kind,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}
