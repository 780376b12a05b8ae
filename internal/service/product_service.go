package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/clock"
	"backoffice/internal/domain"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductInput carries the fields of a new product
type ProductInput struct {
	Name         domain.ProductType
	Presentation domain.Presentation
	Weight       decimal.Decimal
	BasePrice    decimal.Decimal
	SellingPrice decimal.Decimal
	Stock        int
}

// ProductUpdate holds the editable product fields; nil means unchanged
type ProductUpdate struct {
	BasePrice    *decimal.Decimal
	SellingPrice *decimal.Decimal
	Stock        *int
}

// ProductService defines the interface for product business logic
type ProductService interface {
	Create(ctx context.Context, userID uuid.UUID, input ProductInput) (*domain.Product, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, userID uuid.UUID, filter repository.ProductFilter) ([]*domain.Product, int, error)
	Update(ctx context.Context, userID, id uuid.UUID, update ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (*domain.Product, error)
	Movements(ctx context.Context, userID, id uuid.UUID, opts repository.ListOptions) ([]*domain.StockMovement, int, error)
}

type productService struct {
	tx     repository.Transactor
	store  repository.Store
	clock  clock.Clock
	logger *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(tx repository.Transactor, store repository.Store, clk clock.Clock, logger *zap.Logger) ProductService {
	return &productService{tx: tx, store: store, clock: clk, logger: logger}
}

// Create stores the product and records its opening stock as an adjustment
func (s *productService) Create(ctx context.Context, userID uuid.UUID, input ProductInput) (*domain.Product, error) {
	now := s.clock.Now()
	product := &domain.Product{
		ID:           uuid.New(),
		Name:         input.Name,
		Presentation: input.Presentation,
		Weight:       input.Weight,
		BasePrice:    input.BasePrice,
		SellingPrice: input.SellingPrice,
		Stock:        input.Stock,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		if err := store.Products().Create(ctx, product); err != nil {
			return err
		}
		return recordAdjustment(ctx, store, product, 0, product.Stock, now)
	})
	if err != nil {
		if errors.Is(err, repository.ErrProductAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("name", product.FullName()),
	)
	return product, nil
}

func (s *productService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Product, error) {
	return s.store.Products().FindByID(ctx, userID, id)
}

func (s *productService) List(ctx context.Context, userID uuid.UUID, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	products, total, err := s.store.Products().List(ctx, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// Update changes prices or stock. A manual stock change is recorded as an
// adjustment movement in the same transaction.
func (s *productService) Update(ctx context.Context, userID, id uuid.UUID, update ProductUpdate) (*domain.Product, error) {
	var product *domain.Product
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		p, err := store.Products().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.UserID != userID {
			return repository.ErrProductNotFound
		}

		before := p.Stock
		if update.BasePrice != nil {
			p.BasePrice = *update.BasePrice
		}
		if update.SellingPrice != nil {
			p.SellingPrice = *update.SellingPrice
		}
		if update.Stock != nil {
			p.Stock = *update.Stock
		}
		if err := p.Validate(); err != nil {
			return err
		}

		now := s.clock.Now()
		p.UpdatedAt = now
		if err := store.Products().Update(ctx, p); err != nil {
			return err
		}
		if err := recordAdjustment(ctx, store, p, before, p.Stock, now); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, wrapUnlessKnown(err, "failed to update product")
	}
	return product, nil
}

// Delete removes the product with its movement history
func (s *productService) Delete(ctx context.Context, userID, id uuid.UUID) (*domain.Product, error) {
	var product *domain.Product
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		p, err := store.Products().FindByID(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := store.Products().Delete(ctx, userID, id); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, wrapUnlessKnown(err, "failed to delete product")
	}
	return product, nil
}

// Movements lists the stock ledger of one product
func (s *productService) Movements(ctx context.Context, userID, id uuid.UUID, opts repository.ListOptions) ([]*domain.StockMovement, int, error) {
	if _, err := s.store.Products().FindByID(ctx, userID, id); err != nil {
		return nil, 0, err
	}
	movements, total, err := s.store.StockMovements().ListByProduct(ctx, userID, id, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, total, nil
}

func recordAdjustment(ctx context.Context, store repository.Store, product *domain.Product, before, after int, now time.Time) error {
	if before == after {
		return nil
	}
	return store.StockMovements().Create(ctx, &domain.StockMovement{
		ID:          uuid.New(),
		ProductID:   product.ID,
		UserID:      product.UserID,
		Source:      domain.MovementSourceAdjustment,
		Quantity:    after - before,
		StockBefore: before,
		StockAfter:  after,
		CreatedAt:   now,
	})
}
