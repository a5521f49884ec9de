package tests

import (
	"context"
	"testing"

	"medispa/internal/apierror"
	"medispa/internal/dto"
	"medispa/internal/model"
	"medispa/internal/repository"
	"medispa/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory ProductRepository stub ────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

// Find methods return copies, like a real DB read would: callers must not
// observe later mutations through a shared pointer.
func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	var result []model.Product
	for _, p := range r.products {
		if p.Active {
			result = append(result, *p)
		}
	}
	return result, int64(len(result)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Active = false
	return nil
}

func (r *stubProductRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Active = true
	return nil
}

func (r *stubProductRepo) CountLowStock(_ context.Context) (int64, error) {
	var n int64
	for _, p := range r.products {
		if p.Kind == model.KindPhysicalGood && p.Active && p.Stock <= p.LowStockAlert {
			n++
		}
	}
	return n, nil
}

func (r *stubProductRepo) TryDecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	p, ok := r.products[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (r *stubProductRepo) AddStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock += delta
	return nil
}

func (r *stubProductRepo) SetStockTx(_ *gorm.DB, id uuid.UUID, stock int) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock = stock
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// stubMovementRepo captures movements for assertion.
type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, _ int) ([]model.StockMovement, error) {
	var result []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			result = append(result, m)
		}
	}
	return result, nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

func seedStubProduct(repo *stubProductRepo, name string, stock int) *model.Product {
	p := &model.Product{
		ID:            uuid.New(),
		Name:          name,
		Price:         decimal.NewFromFloat(15.00),
		Stock:         stock,
		LowStockAlert: 5,
		Kind:          model.KindPhysicalGood,
		Active:        true,
	}
	repo.products[p.ID] = p
	return p
}

// ── Tests: ReserveStockTx ─────────────────────────────────────────────────────

func TestReserveStock_Decrements(t *testing.T) {
	repo := newStubProductRepo()
	movements := &stubMovementRepo{}
	svc := service.NewInventoryService(repo, movements)
	p := seedStubProduct(repo, "Shampoo", 10)

	saleID := uuid.New()
	err := svc.ReserveStockTx(context.Background(), nil, p.ID, 4, saleID)
	require.NoError(t, err)
	assert.Equal(t, 6, repo.products[p.ID].Stock)

	require.Len(t, movements.movements, 1)
	m := movements.movements[0]
	assert.Equal(t, model.MovementSale, m.Kind)
	assert.Equal(t, -4, m.Quantity)
	assert.Equal(t, 10, m.StockBefore)
	assert.Equal(t, 6, m.StockAfter)
	assert.Equal(t, saleID, *m.ReferenceID)
}

func TestReserveStock_Insufficient(t *testing.T) {
	repo := newStubProductRepo()
	svc := service.NewInventoryService(repo, &stubMovementRepo{})
	p := seedStubProduct(repo, "Crema", 2)

	err := svc.ReserveStockTx(context.Background(), nil, p.ID, 5, uuid.New())
	var stockErr *apierror.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Crema", stockErr.Product)
	assert.Equal(t, 2, repo.products[p.ID].Stock)
}

func TestReserveStock_ServicePassthrough(t *testing.T) {
	repo := newStubProductRepo()
	movements := &stubMovementRepo{}
	svc := service.NewInventoryService(repo, movements)

	treatment := seedStubProduct(repo, "Masaje", 0)
	treatment.Kind = model.KindService

	err := svc.ReserveStockTx(context.Background(), nil, treatment.ID, 3, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, movements.movements)
}

func TestReserveStock_InvalidQuantity(t *testing.T) {
	repo := newStubProductRepo()
	svc := service.NewInventoryService(repo, &stubMovementRepo{})
	p := seedStubProduct(repo, "Tónico", 5)

	assert.Error(t, svc.ReserveStockTx(context.Background(), nil, p.ID, 0, uuid.New()))
	assert.Error(t, svc.ReserveStockTx(context.Background(), nil, p.ID, -1, uuid.New()))
}

func TestReserveStock_UnknownProduct(t *testing.T) {
	svc := service.NewInventoryService(newStubProductRepo(), &stubMovementRepo{})

	err := svc.ReserveStockTx(context.Background(), nil, uuid.New(), 1, uuid.New())
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

// ── Tests: AdjustStock ────────────────────────────────────────────────────────

func TestAdjustStock_Add(t *testing.T) {
	repo := newStubProductRepo()
	movements := &stubMovementRepo{}
	svc := service.NewInventoryService(repo, movements)
	p := seedStubProduct(repo, "Aceite", 10)

	updated, err := svc.AdjustStock(context.Background(), p.ID, dto.AdjustStockRequest{
		Quantity: 15, Mode: "add", Reason: "Reposición de proveedor",
	})
	require.NoError(t, err)
	assert.Equal(t, 25, updated.Stock)

	require.Len(t, movements.movements, 1)
	assert.Equal(t, model.MovementManualAdjust, movements.movements[0].Kind)
	assert.Equal(t, "Reposición de proveedor", movements.movements[0].Reason)
}

func TestAdjustStock_SubtractInsufficient(t *testing.T) {
	repo := newStubProductRepo()
	svc := service.NewInventoryService(repo, &stubMovementRepo{})
	p := seedStubProduct(repo, "Gel", 3)

	_, err := svc.AdjustStock(context.Background(), p.ID, dto.AdjustStockRequest{
		Quantity: 10, Mode: "subtract",
	})
	var stockErr *apierror.InsufficientStockError
	assert.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, repo.products[p.ID].Stock)
}

func TestAdjustStock_Set(t *testing.T) {
	repo := newStubProductRepo()
	movements := &stubMovementRepo{}
	svc := service.NewInventoryService(repo, movements)
	p := seedStubProduct(repo, "Esencia", 7)

	updated, err := svc.AdjustStock(context.Background(), p.ID, dto.AdjustStockRequest{
		Quantity: 42, Mode: "set",
	})
	require.NoError(t, err)
	assert.Equal(t, 42, updated.Stock)

	// Movement records the delta, not the absolute value
	require.Len(t, movements.movements, 1)
	assert.Equal(t, 35, movements.movements[0].Quantity)
}

func TestAdjustStock_ExceedsMaximum(t *testing.T) {
	repo := newStubProductRepo()
	svc := service.NewInventoryService(repo, &stubMovementRepo{})
	p := seedStubProduct(repo, "Ampolla", 10)

	_, err := svc.AdjustStock(context.Background(), p.ID, dto.AdjustStockRequest{
		Quantity: model.MaxStock, Mode: "add",
	})
	assert.ErrorIs(t, err, apierror.ErrStockLimitExceeded)

	_, err = svc.AdjustStock(context.Background(), p.ID, dto.AdjustStockRequest{
		Quantity: model.MaxStock + 1, Mode: "set",
	})
	assert.ErrorIs(t, err, apierror.ErrStockLimitExceeded)
}

func TestAdjustStock_ServiceRejected(t *testing.T) {
	repo := newStubProductRepo()
	svc := service.NewInventoryService(repo, &stubMovementRepo{})
	treatment := seedStubProduct(repo, "Peeling", 0)
	treatment.Kind = model.KindService

	_, err := svc.AdjustStock(context.Background(), treatment.ID, dto.AdjustStockRequest{
		Quantity: 5, Mode: "add",
	})
	assert.ErrorContains(t, err, "servicios no tienen inventario")
}

// ── Tests: product catalog rules ──────────────────────────────────────────────

func TestCreateProduct_ServiceWithStockRejected(t *testing.T) {
	svc := service.NewProductService(newStubProductRepo(), &stubMovementRepo{}, nil)

	_, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name:  "Masaje Descontracturante",
		Price: decimal.NewFromInt(90),
		Stock: 10,
		Kind:  model.KindService,
	})
	assert.ErrorContains(t, err, "servicios no tienen inventario")
}

func TestUpdateProduct_KindChangeWithStockRejected(t *testing.T) {
	repo := newStubProductRepo()
	svc := service.NewProductService(repo, &stubMovementRepo{}, nil)
	p := seedStubProduct(repo, "Crema Reafirmante", 8)

	_, err := svc.Update(context.Background(), p.ID, nil, dto.UpdateProductRequest{
		Kind: model.KindService,
	})
	assert.ErrorContains(t, err, "no puede convertirse en servicio")
}

func TestDeactivateProduct(t *testing.T) {
	repo := newStubProductRepo()
	svc := service.NewProductService(repo, &stubMovementRepo{}, nil)
	p := seedStubProduct(repo, "Bruma", 5)

	require.NoError(t, svc.Deactivate(context.Background(), p.ID))
	assert.False(t, repo.products[p.ID].Active)

	reactivated, err := svc.Reactivate(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, reactivated.Active)
}

// ── Tests: price change audit ─────────────────────────────────────────────────

func buildProductService(db *gorm.DB) service.ProductService {
	return service.NewProductService(
		repository.NewProductRepository(db),
		repository.NewStockMovementRepository(db),
		repository.NewPriceHistoryRepository(db),
	)
}

func TestUpdateProduct_PriceChangeIsAudited(t *testing.T) {
	db := newTestDB(t)
	svc := buildProductService(db)
	p := seedTestProduct(t, db, "Contorno de Ojos", 30.00, 10)
	operator := uuid.New()

	newPrice := decimal.NewFromFloat(36.50)
	_, err := svc.Update(context.Background(), p.ID, &operator, dto.UpdateProductRequest{
		Price: &newPrice,
	})
	require.NoError(t, err)

	rows, err := svc.PriceHistory(context.Background(), p.ID, 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].PriceBefore.Equal(decimal.NewFromInt(30)))
	assert.True(t, rows[0].PriceAfter.Equal(newPrice))
	require.NotNil(t, rows[0].ChangedBy)
	assert.Equal(t, operator, *rows[0].ChangedBy)
}

func TestUpdateProduct_NoAuditWithoutPriceChange(t *testing.T) {
	db := newTestDB(t)
	svc := buildProductService(db)
	p := seedTestProduct(t, db, "Tónico Facial", 22.00, 4)

	// Renaming only, and re-sending the same price, record nothing.
	_, err := svc.Update(context.Background(), p.ID, nil, dto.UpdateProductRequest{
		Name: "Tónico Facial Suave",
	})
	require.NoError(t, err)

	samePrice := decimal.NewFromFloat(22.00)
	_, err = svc.Update(context.Background(), p.ID, nil, dto.UpdateProductRequest{
		Price: &samePrice,
	})
	require.NoError(t, err)

	rows, err := svc.PriceHistory(context.Background(), p.ID, 50)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCountLowStock(t *testing.T) {
	repo := newStubProductRepo()
	seedStubProduct(repo, "Bien surtido", 50)
	seedStubProduct(repo, "Casi agotado", 3) // alert threshold is 5
	seedStubProduct(repo, "Agotado", 0)

	n, err := repo.CountLowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
