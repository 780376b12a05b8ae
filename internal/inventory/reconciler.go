// Package inventory keeps product stock in step with the line items of
// orders and sales.
//
// Orders add stock and clamp at zero when an edit or removal takes more than
// is left. Sales take stock and fail rather than go negative. Lines are
// applied one at a time in list order, so two lines for the same product are
// two separate read-modify-write steps. Callers run both hooks inside the
// transaction that persists the order or sale, which makes the whole batch
// commit or roll back together.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/clock"
	"backoffice/internal/domain"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind is the type of transaction being reconciled
type Kind string

const (
	KindOrder Kind = "order"
	KindSale  Kind = "sale"
)

// sign is +1 when the kind adds stock for a positive quantity
func (k Kind) sign() int {
	if k == KindSale {
		return -1
	}
	return 1
}

func (k Kind) movementSource() domain.MovementSource {
	if k == KindSale {
		return domain.MovementSourceSale
	}
	return domain.MovementSourceOrder
}

// Source identifies the order or sale being reconciled and its owner
type Source struct {
	Kind    Kind
	ID      int64
	OwnerID uuid.UUID
}

// ProductStore is the product access the reconciler needs. FindByIDForUpdate
// must lock the row for the rest of the transaction.
type ProductStore interface {
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	UpdateStock(ctx context.Context, id uuid.UUID, stock int, updatedAt time.Time) error
}

// MovementRecorder appends to the stock ledger
type MovementRecorder interface {
	Create(ctx context.Context, movement *domain.StockMovement) error
}

// Recorder receives reconciliation outcomes
type Recorder interface {
	StockMoved(source domain.MovementSource, quantity int)
	ReconcileFailed(kind string, reason string)
}

type nopRecorder struct{}

func (nopRecorder) StockMoved(domain.MovementSource, int) {}
func (nopRecorder) ReconcileFailed(string, string)        {}

// Reconciler translates line-item changes into stock mutations
type Reconciler struct {
	clock    clock.Clock
	logger   *zap.Logger
	recorder Recorder
}

// NewReconciler creates a Reconciler; a nil recorder discards outcomes
func NewReconciler(clk clock.Clock, logger *zap.Logger, recorder Recorder) *Reconciler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Reconciler{clock: clk, logger: logger, recorder: recorder}
}

// BeforeSave applies the difference between previous and next to stock.
// previous is nil for a new order or sale.
func (r *Reconciler) BeforeSave(ctx context.Context, products ProductStore, movements MovementRecorder, src Source, previous, next domain.LineItems) error {
	for _, item := range next {
		delta := item.Quantity - previous.QuantityOf(item.ProductID)
		if err := r.apply(ctx, products, movements, src, item.ProductID, src.Kind.sign()*delta); err != nil {
			return r.fail(src, err)
		}
	}

	for _, prev := range previous {
		if next.Contains(prev.ProductID) {
			continue
		}
		if err := r.apply(ctx, products, movements, src, prev.ProductID, -src.Kind.sign()*prev.Quantity); err != nil {
			return r.fail(src, err)
		}
	}

	return nil
}

// BeforeRemove reverses the full quantity of every line of a deleted order or sale
func (r *Reconciler) BeforeRemove(ctx context.Context, products ProductStore, movements MovementRecorder, src Source, items domain.LineItems) error {
	for _, item := range items {
		if err := r.apply(ctx, products, movements, src, item.ProductID, -src.Kind.sign()*item.Quantity); err != nil {
			return r.fail(src, err)
		}
	}
	return nil
}

// apply adds change to the product's stock. A negative result fails for a
// sale adding to its quantity and is clamped to zero otherwise. A result
// above domain.MaxQuantity always fails.
func (r *Reconciler) apply(ctx context.Context, products ProductStore, movements MovementRecorder, src Source, productID uuid.UUID, change int) error {
	product, err := products.FindByIDForUpdate(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return &ProductNotFoundError{ProductID: productID}
		}
		return fmt.Errorf("failed to load product %s: %w", productID, err)
	}
	if product.UserID != src.OwnerID {
		return &ProductNotFoundError{ProductID: productID}
	}

	before := product.Stock
	if change > 0 && change > domain.MaxQuantity-before {
		return &StockLimitError{ProductID: productID, Available: before, Adding: change}
	}
	after := before + change
	if after < 0 {
		if src.Kind == KindSale && change < 0 {
			return &InsufficientStockError{ProductID: productID, Available: before, Requested: -change}
		}
		after = 0
	}

	if after == before {
		return nil
	}

	now := r.clock.Now()
	if err := products.UpdateStock(ctx, productID, after, now); err != nil {
		return fmt.Errorf("failed to update stock of product %s: %w", productID, err)
	}

	movement := &domain.StockMovement{
		ID:          uuid.New(),
		ProductID:   productID,
		UserID:      src.OwnerID,
		Source:      src.Kind.movementSource(),
		SourceID:    src.ID,
		Quantity:    after - before,
		StockBefore: before,
		StockAfter:  after,
		CreatedAt:   now,
	}
	if err := movements.Create(ctx, movement); err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}

	r.recorder.StockMoved(movement.Source, movement.Quantity)
	r.logger.Debug("Stock adjusted",
		zap.String("product_id", productID.String()),
		zap.String("source", string(movement.Source)),
		zap.Int64("source_id", src.ID),
		zap.Int("before", before),
		zap.Int("after", after),
	)
	return nil
}

func (r *Reconciler) fail(src Source, err error) error {
	reason := "error"
	switch {
	case errors.Is(err, ErrProductNotFound):
		reason = "product_not_found"
	case errors.Is(err, ErrInsufficientStock):
		reason = "insufficient_stock"
	case errors.Is(err, ErrStockLimit):
		reason = "stock_limit"
	}
	r.recorder.ReconcileFailed(string(src.Kind), reason)
	r.logger.Warn("Stock reconciliation failed",
		zap.String("kind", string(src.Kind)),
		zap.Int64("source_id", src.ID),
		zap.String("reason", reason),
		zap.Error(err),
	)
	return err
}
