package service

import (
	"context"
	"time"

	"backoffice/internal/clock"
	"backoffice/internal/domain"
	"backoffice/internal/inventory"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderInput carries a new order. A nil TotalPrice defaults to the sum of
// the line totals; a zero OrderDate defaults to now.
type OrderInput struct {
	OrderDate  time.Time
	TotalPrice *decimal.Decimal
	LineItems  domain.LineItems
}

// OrderUpdate holds the editable order fields; nil means unchanged.
// LineItems replaces the whole list and is the only field that moves stock.
type OrderUpdate struct {
	OrderDate  *time.Time
	TotalPrice *decimal.Decimal
	LineItems  domain.LineItems
}

// OrderService defines the interface for order business logic
type OrderService interface {
	Create(ctx context.Context, userID uuid.UUID, input OrderInput) (*domain.Order, error)
	Get(ctx context.Context, userID uuid.UUID, id int64) (*domain.Order, error)
	List(ctx context.Context, userID uuid.UUID, opts repository.ListOptions) ([]*domain.Order, int, error)
	Update(ctx context.Context, userID uuid.UUID, id int64, update OrderUpdate) (*domain.Order, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) (*domain.Order, error)
}

type orderService struct {
	tx         repository.Transactor
	store      repository.Store
	reconciler *inventory.Reconciler
	clock      clock.Clock
	logger     *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(tx repository.Transactor, store repository.Store, reconciler *inventory.Reconciler, clk clock.Clock, logger *zap.Logger) OrderService {
	return &orderService{tx: tx, store: store, reconciler: reconciler, clock: clk, logger: logger}
}

// Create persists the order and adds its quantities to stock in one
// transaction.
func (s *orderService) Create(ctx context.Context, userID uuid.UUID, input OrderInput) (*domain.Order, error) {
	now := s.clock.Now()
	order := &domain.Order{
		OrderDate:  input.OrderDate,
		TotalPrice: input.LineItems.Total(),
		LineItems:  input.LineItems.Clone(),
		UserID:     userID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}
	if input.TotalPrice != nil {
		order.TotalPrice = *input.TotalPrice
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		if err := store.Orders().Create(ctx, order); err != nil {
			return err
		}
		src := inventory.Source{Kind: inventory.KindOrder, ID: order.ID, OwnerID: userID}
		return s.reconciler.BeforeSave(ctx, store.Products(), store.StockMovements(), src, nil, order.LineItems)
	})
	if err != nil {
		return nil, wrapUnlessKnown(err, "failed to create order")
	}

	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("user_id", userID.String()),
		zap.Int("lines", len(order.LineItems)),
	)
	return order, nil
}

func (s *orderService) Get(ctx context.Context, userID uuid.UUID, id int64) (*domain.Order, error) {
	return s.store.Orders().FindByID(ctx, userID, id)
}

func (s *orderService) List(ctx context.Context, userID uuid.UUID, opts repository.ListOptions) ([]*domain.Order, int, error) {
	orders, total, err := s.store.Orders().List(ctx, userID, opts)
	if err != nil {
		return nil, 0, wrapUnlessKnown(err, "failed to list orders")
	}
	return orders, total, nil
}

// Update applies the changed fields. When the line items are replaced the
// stored list is locked and diffed against the new one before writing.
func (s *orderService) Update(ctx context.Context, userID uuid.UUID, id int64, update OrderUpdate) (*domain.Order, error) {
	var order *domain.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		o, err := store.Orders().FindByIDForUpdate(ctx, userID, id)
		if err != nil {
			return err
		}
		previous := o.LineItems

		if update.OrderDate != nil {
			o.OrderDate = *update.OrderDate
		}
		if update.LineItems != nil {
			o.LineItems = update.LineItems.Clone()
			if update.TotalPrice == nil {
				o.TotalPrice = o.LineItems.Total()
			}
		}
		if update.TotalPrice != nil {
			o.TotalPrice = *update.TotalPrice
		}
		if err := o.Validate(); err != nil {
			return err
		}

		if update.LineItems != nil {
			src := inventory.Source{Kind: inventory.KindOrder, ID: o.ID, OwnerID: userID}
			if err := s.reconciler.BeforeSave(ctx, store.Products(), store.StockMovements(), src, previous, o.LineItems); err != nil {
				return err
			}
		}

		o.UpdatedAt = s.clock.Now()
		if err := store.Orders().Update(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, wrapUnlessKnown(err, "failed to update order")
	}
	return order, nil
}

// Delete takes the order's quantities back out of stock and removes it
func (s *orderService) Delete(ctx context.Context, userID uuid.UUID, id int64) (*domain.Order, error) {
	var order *domain.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		o, err := store.Orders().FindByIDForUpdate(ctx, userID, id)
		if err != nil {
			return err
		}
		src := inventory.Source{Kind: inventory.KindOrder, ID: o.ID, OwnerID: userID}
		if err := s.reconciler.BeforeRemove(ctx, store.Products(), store.StockMovements(), src, o.LineItems); err != nil {
			return err
		}
		if err := store.Orders().Delete(ctx, userID, id); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, wrapUnlessKnown(err, "failed to delete order")
	}

	s.logger.Info("Order deleted", zap.Int64("order_id", id), zap.String("user_id", userID.String()))
	return order, nil
}
