package service

import (
	"context"
	"testing"

	"backoffice/internal/clock"
	"backoffice/internal/domain"
	"backoffice/internal/inventory"
	"backoffice/internal/repository"
	"backoffice/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// backOffice wires every inventory-facing service to one memory store
type backOffice struct {
	t         *testing.T
	store     *memory.Store
	clock     *clock.Fixed
	owner     uuid.UUID
	products  ProductService
	customers CustomerService
	orders    OrderService
	sales     SaleService
	weight    int64
}

func newBackOffice(t *testing.T) *backOffice {
	t.Helper()
	store := memory.New()
	clk := clock.NewFixed(epoch)
	logger := zap.NewNop()
	reconciler := inventory.NewReconciler(clk, logger, nil)

	b := &backOffice{
		t:         t,
		store:     store,
		clock:     clk,
		products:  NewProductService(store, store, clk, logger),
		customers: NewCustomerService(store, store, reconciler, clk, logger),
		orders:    NewOrderService(store, store, reconciler, clk, logger),
		sales:     NewSaleService(store, store, reconciler, clk, logger),
	}
	b.owner = b.user("owner@example.com")
	return b
}

func (b *backOffice) user(email string) uuid.UUID {
	b.t.Helper()
	u := &domain.User{ID: uuid.New(), Name: "User", Email: email, Role: domain.RoleUser, Active: true, CreatedAt: epoch, UpdatedAt: epoch}
	require.NoError(b.t, b.store.Users().Create(context.Background(), u))
	return u.ID
}

// product creates a product for owner with a distinct weight
func (b *backOffice) product(owner uuid.UUID, stock int) uuid.UUID {
	b.t.Helper()
	b.weight++
	p, err := b.products.Create(context.Background(), owner, ProductInput{
		Name:         domain.ProductTypeMinigalleta,
		Presentation: domain.PresentationSobre,
		Weight:       decimal.NewFromInt(b.weight * 10),
		BasePrice:    decimal.NewFromInt(800),
		SellingPrice: decimal.NewFromInt(1200),
		Stock:        stock,
	})
	require.NoError(b.t, err)
	return p.ID
}

func (b *backOffice) customer(owner uuid.UUID) uuid.UUID {
	b.t.Helper()
	c, err := b.customers.Create(context.Background(), owner, CustomerInput{
		Name:      "Rosa",
		Address:   "Calle 45 # 12-30",
		StoreName: "Tienda Rosa",
		Locality:  "Chapinero",
	})
	require.NoError(b.t, err)
	return c.ID
}

func (b *backOffice) stock(id uuid.UUID) int {
	b.t.Helper()
	p, err := b.store.Products().FindByIDForUpdate(context.Background(), id)
	require.NoError(b.t, err)
	return p.Stock
}

func (b *backOffice) movements(owner, id uuid.UUID) []*domain.StockMovement {
	b.t.Helper()
	ms, _, err := b.store.StockMovements().ListByProduct(context.Background(), owner, id, repository.ListOptions{
		Limit:     repository.MaxLimit,
		SortBy:    "createdAt",
		SortOrder: repository.SortOrderAsc,
	})
	require.NoError(b.t, err)
	return ms
}

// items builds line items from product/quantity pairs at a unit price of 1000
func items(pairs ...any) domain.LineItems {
	var out domain.LineItems
	for i := 0; i < len(pairs); i += 2 {
		qty := pairs[i+1].(int)
		out = append(out, domain.LineItem{
			ProductID:  pairs[i].(uuid.UUID),
			Price:      decimal.NewFromInt(1000),
			Quantity:   qty,
			TotalPrice: decimal.NewFromInt(int64(qty) * 1000),
		})
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
