package service

import (
	"context"
	"errors"
	"testing"

	"backoffice/internal/domain"
	"backoffice/internal/inventory"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleWithinStock(t *testing.T) {
	b := newBackOffice(t)
	ctx := context.Background()
	p := b.product(b.owner, 10)
	c := b.customer(b.owner)

	sale, err := b.sales.Create(ctx, b.owner, SaleInput{CustomerID: c, Owes: true, PartialPayment: decimal.NewFromInt(1000), LineItems: items(p, 4)})
	require.NoError(t, err)

	assert.Equal(t, 6, b.stock(p))
	stored, err := b.sales.Get(ctx, b.owner, sale.ID)
	require.NoError(t, err)
	assert.True(t, stored.Owes)
	assert.True(t, stored.TotalPrice.Equal(decimal.NewFromInt(4000)))
	require.Len(t, stored.LineItems, 1)
	assert.Equal(t, 4, stored.LineItems[0].Quantity)
}

func TestSaleBeyondStockIsNotPersisted(t *testing.T) {
	b := newBackOffice(t)
	ctx := context.Background()
	p := b.product(b.owner, 6)
	c := b.customer(b.owner)

	_, err := b.sales.Create(ctx, b.owner, SaleInput{CustomerID: c, LineItems: items(p, 10)})

	var stockErr *inventory.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, p, stockErr.ProductID)
	assert.Equal(t, 6, b.stock(p))
	_, total, err := b.sales.List(ctx, b.owner, repository.SaleFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSaleSecondLineFailureLeavesFirstProductUntouched(t *testing.T) {
	b := newBackOffice(t)
	ctx := context.Background()
	p1 := b.product(b.owner, 10)
	p2 := b.product(b.owner, 1)
	c := b.customer(b.owner)

	_, err := b.sales.Create(ctx, b.owner, SaleInput{CustomerID: c, LineItems: items(p1, 4, p2, 5)})

	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 10, b.stock(p1))
	assert.Equal(t, 1, b.stock(p2))
	assert.Len(t, b.movements(b.owner, p1), 1)
}

func TestSaleUpdateFailureKeepsStoredSale(t *testing.T) {
	b := newBackOffice(t)
	ctx := context.Background()
	p := b.product(b.owner, 10)
	c := b.customer(b.owner)
	sale, err := b.sales.Create(ctx, b.owner, SaleInput{CustomerID: c, LineItems: items(p, 4)})
	require.NoError(t, err)

	_, err = b.sales.Update(ctx, b.owner, sale.ID, SaleUpdate{Owes: ptr(true), LineItems: items(p, 20)})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	stored, err := b.sales.Get(ctx, b.owner, sale.ID)
	require.NoError(t, err)
	assert.False(t, stored.Owes)
	assert.Equal(t, 4, stored.LineItems[0].Quantity)
	assert.Equal(t, 6, b.stock(p))

	_, err = b.sales.Update(ctx, b.owner, sale.ID, SaleUpdate{LineItems: items(p, 9)})
	require.NoError(t, err)
	assert.Equal(t, 1, b.stock(p))
}

func TestSaleDeleteRestoresStock(t *testing.T) {
	b := newBackOffice(t)
	ctx := context.Background()
	p := b.product(b.owner, 10)
	c := b.customer(b.owner)
	sale, err := b.sales.Create(ctx, b.owner, SaleInput{CustomerID: c, LineItems: items(p, 7)})
	require.NoError(t, err)

	_, err = b.sales.Delete(ctx, b.owner, sale.ID)
	require.NoError(t, err)

	assert.Equal(t, 10, b.stock(p))
	_, err = b.sales.Get(ctx, b.owner, sale.ID)
	assert.ErrorIs(t, err, repository.ErrSaleNotFound)
}

func TestSaleRequiresOwnCustomer(t *testing.T) {
	b := newBackOffice(t)
	ctx := context.Background()
	p := b.product(b.owner, 10)
	other := b.user("other@example.com")
	foreignCustomer := b.customer(other)

	for _, customerID := range []uuid.UUID{foreignCustomer, uuid.New()} {
		_, err := b.sales.Create(ctx, b.owner, SaleInput{CustomerID: customerID, LineItems: items(p, 1)})
		var verrs domain.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, "customer", verrs[0].Field)
	}
	assert.Equal(t, 10, b.stock(p))

	own := b.customer(b.owner)
	sale, err := b.sales.Create(ctx, b.owner, SaleInput{CustomerID: own, LineItems: items(p, 1)})
	require.NoError(t, err)
	_, err = b.sales.Update(ctx, b.owner, sale.ID, SaleUpdate{CustomerID: &foreignCustomer})
	var verrs domain.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestSaleListFiltersByCustomer(t *testing.T) {
	b := newBackOffice(t)
	ctx := context.Background()
	p := b.product(b.owner, 10)
	c1 := b.customer(b.owner)
	c2 := b.customer(b.owner)
	for _, c := range []uuid.UUID{c1, c1, c2} {
		_, err := b.sales.Create(ctx, b.owner, SaleInput{CustomerID: c, LineItems: items(p, 1)})
		require.NoError(t, err)
	}

	sales, total, err := b.sales.List(ctx, b.owner, repository.SaleFilter{CustomerID: c1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, s := range sales {
		assert.Equal(t, c1, s.CustomerID)
	}
}

func TestCustomerDeleteReturnsSoldStock(t *testing.T) {
	b := newBackOffice(t)
	ctx := context.Background()
	p := b.product(b.owner, 10)
	c := b.customer(b.owner)
	keep := b.customer(b.owner)
	for _, q := range []int{2, 3} {
		_, err := b.sales.Create(ctx, b.owner, SaleInput{CustomerID: c, LineItems: items(p, q)})
		require.NoError(t, err)
	}
	_, err := b.sales.Create(ctx, b.owner, SaleInput{CustomerID: keep, LineItems: items(p, 1)})
	require.NoError(t, err)
	require.Equal(t, 4, b.stock(p))

	deleted, err := b.customers.Delete(ctx, b.owner, c)
	require.NoError(t, err)
	assert.Equal(t, c, deleted.ID)

	assert.Equal(t, 9, b.stock(p))
	_, total, err := b.sales.List(ctx, b.owner, repository.SaleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCustomerCRUD(t *testing.T) {
	b := newBackOffice(t)
	ctx := context.Background()

	_, err := b.customers.Create(ctx, b.owner, CustomerInput{StoreName: "X", Address: "Y", Locality: "Narnia", PhoneNumber: "31x"})
	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)

	c, err := b.customers.Create(ctx, b.owner, CustomerInput{
		Name:      "Luis",
		Email:     "Luis@Tienda.co",
		StoreName: "Tienda Luis",
		Address:   "Carrera 7",
		Locality:  "Suba",
	})
	require.NoError(t, err)
	assert.Equal(t, "luis@tienda.co", c.Email)

	updated, err := b.customers.Update(ctx, b.owner, c.ID, CustomerUpdate{Town: ptr(" Bogotá "), Locality: ptr("Kennedy")})
	require.NoError(t, err)
	assert.Equal(t, "Bogotá", updated.Town)
	assert.Equal(t, "Kennedy", updated.Locality)

	found, total, err := b.customers.List(ctx, b.owner, repository.ListOptions{TextQuery: "luis"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, c.ID, found[0].ID)

	other := b.user("other@example.com")
	_, err = b.customers.Get(ctx, other, c.ID)
	assert.ErrorIs(t, err, repository.ErrCustomerNotFound)
	_, err = b.customers.Delete(ctx, other, c.ID)
	assert.ErrorIs(t, err, repository.ErrCustomerNotFound)
}
