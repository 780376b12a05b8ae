package service

import (
	"context"
	"errors"
	"time"

	"backoffice/internal/clock"
	"backoffice/internal/domain"
	"backoffice/internal/inventory"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleInput carries a new sale. A nil TotalPrice defaults to the sum of the
// line totals; a zero SaleDate defaults to now.
type SaleInput struct {
	CustomerID      uuid.UUID
	SaleDate        time.Time
	IsThirteenDozen bool
	Owes            bool
	PartialPayment  decimal.Decimal
	TotalPrice      *decimal.Decimal
	LineItems       domain.LineItems
}

// SaleUpdate holds the editable sale fields; nil means unchanged.
// LineItems replaces the whole list and is the only field that moves stock.
type SaleUpdate struct {
	CustomerID      *uuid.UUID
	SaleDate        *time.Time
	IsThirteenDozen *bool
	Owes            *bool
	PartialPayment  *decimal.Decimal
	TotalPrice      *decimal.Decimal
	LineItems       domain.LineItems
}

// SaleService defines the interface for sale business logic
type SaleService interface {
	Create(ctx context.Context, userID uuid.UUID, input SaleInput) (*domain.Sale, error)
	Get(ctx context.Context, userID uuid.UUID, id int64) (*domain.Sale, error)
	List(ctx context.Context, userID uuid.UUID, filter repository.SaleFilter) ([]*domain.Sale, int, error)
	Update(ctx context.Context, userID uuid.UUID, id int64, update SaleUpdate) (*domain.Sale, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) (*domain.Sale, error)
}

type saleService struct {
	tx         repository.Transactor
	store      repository.Store
	reconciler *inventory.Reconciler
	clock      clock.Clock
	logger     *zap.Logger
}

// NewSaleService creates a new instance of SaleService
func NewSaleService(tx repository.Transactor, store repository.Store, reconciler *inventory.Reconciler, clk clock.Clock, logger *zap.Logger) SaleService {
	return &saleService{tx: tx, store: store, reconciler: reconciler, clock: clk, logger: logger}
}

// Create persists the sale and takes its quantities from stock in one
// transaction. Any line short of stock rejects the whole sale.
func (s *saleService) Create(ctx context.Context, userID uuid.UUID, input SaleInput) (*domain.Sale, error) {
	now := s.clock.Now()
	sale := &domain.Sale{
		SaleDate:        input.SaleDate,
		CustomerID:      input.CustomerID,
		IsThirteenDozen: input.IsThirteenDozen,
		Owes:            input.Owes,
		PartialPayment:  input.PartialPayment,
		TotalPrice:      input.LineItems.Total(),
		LineItems:       input.LineItems.Clone(),
		UserID:          userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if sale.SaleDate.IsZero() {
		sale.SaleDate = now
	}
	if input.TotalPrice != nil {
		sale.TotalPrice = *input.TotalPrice
	}
	if err := sale.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		if err := checkCustomer(ctx, store, userID, sale.CustomerID); err != nil {
			return err
		}
		if err := store.Sales().Create(ctx, sale); err != nil {
			return err
		}
		src := inventory.Source{Kind: inventory.KindSale, ID: sale.ID, OwnerID: userID}
		return s.reconciler.BeforeSave(ctx, store.Products(), store.StockMovements(), src, nil, sale.LineItems)
	})
	if err != nil {
		return nil, wrapUnlessKnown(err, "failed to create sale")
	}

	s.logger.Info("Sale created",
		zap.Int64("sale_id", sale.ID),
		zap.String("user_id", userID.String()),
		zap.String("customer_id", sale.CustomerID.String()),
	)
	return sale, nil
}

func (s *saleService) Get(ctx context.Context, userID uuid.UUID, id int64) (*domain.Sale, error) {
	return s.store.Sales().FindByID(ctx, userID, id)
}

func (s *saleService) List(ctx context.Context, userID uuid.UUID, filter repository.SaleFilter) ([]*domain.Sale, int, error) {
	sales, total, err := s.store.Sales().List(ctx, userID, filter)
	if err != nil {
		return nil, 0, wrapUnlessKnown(err, "failed to list sales")
	}
	return sales, total, nil
}

// Update applies the changed fields. When the line items are replaced the
// stored list is locked and diffed against the new one before writing.
func (s *saleService) Update(ctx context.Context, userID uuid.UUID, id int64, update SaleUpdate) (*domain.Sale, error) {
	var sale *domain.Sale
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		sl, err := store.Sales().FindByIDForUpdate(ctx, userID, id)
		if err != nil {
			return err
		}
		previous := sl.LineItems

		if update.CustomerID != nil && *update.CustomerID != sl.CustomerID {
			if err := checkCustomer(ctx, store, userID, *update.CustomerID); err != nil {
				return err
			}
			sl.CustomerID = *update.CustomerID
		}
		if update.SaleDate != nil {
			sl.SaleDate = *update.SaleDate
		}
		if update.IsThirteenDozen != nil {
			sl.IsThirteenDozen = *update.IsThirteenDozen
		}
		if update.Owes != nil {
			sl.Owes = *update.Owes
		}
		if update.PartialPayment != nil {
			sl.PartialPayment = *update.PartialPayment
		}
		if update.LineItems != nil {
			sl.LineItems = update.LineItems.Clone()
			if update.TotalPrice == nil {
				sl.TotalPrice = sl.LineItems.Total()
			}
		}
		if update.TotalPrice != nil {
			sl.TotalPrice = *update.TotalPrice
		}
		if err := sl.Validate(); err != nil {
			return err
		}

		if update.LineItems != nil {
			src := inventory.Source{Kind: inventory.KindSale, ID: sl.ID, OwnerID: userID}
			if err := s.reconciler.BeforeSave(ctx, store.Products(), store.StockMovements(), src, previous, sl.LineItems); err != nil {
				return err
			}
		}

		sl.UpdatedAt = s.clock.Now()
		if err := store.Sales().Update(ctx, sl); err != nil {
			return err
		}
		sale = sl
		return nil
	})
	if err != nil {
		return nil, wrapUnlessKnown(err, "failed to update sale")
	}
	return sale, nil
}

// Delete returns the sale's quantities to stock and removes it
func (s *saleService) Delete(ctx context.Context, userID uuid.UUID, id int64) (*domain.Sale, error) {
	var sale *domain.Sale
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		sl, err := store.Sales().FindByIDForUpdate(ctx, userID, id)
		if err != nil {
			return err
		}
		src := inventory.Source{Kind: inventory.KindSale, ID: sl.ID, OwnerID: userID}
		if err := s.reconciler.BeforeRemove(ctx, store.Products(), store.StockMovements(), src, sl.LineItems); err != nil {
			return err
		}
		if err := store.Sales().Delete(ctx, userID, id); err != nil {
			return err
		}
		sale = sl
		return nil
	})
	if err != nil {
		return nil, wrapUnlessKnown(err, "failed to delete sale")
	}

	s.logger.Info("Sale deleted", zap.Int64("sale_id", id), zap.String("user_id", userID.String()))
	return sale, nil
}

// checkCustomer rejects a customer that is missing or belongs to another owner
func checkCustomer(ctx context.Context, store repository.Store, userID, customerID uuid.UUID) error {
	if _, err := store.Customers().FindByID(ctx, userID, customerID); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return domain.ValidationErrors{{Field: "customer", Message: "customer not found"}}
		}
		return err
	}
	return nil
}
