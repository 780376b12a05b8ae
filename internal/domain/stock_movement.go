package domain

import (
	"time"

	"github.com/google/uuid"
)

// MovementSource identifies what caused a stock change
type MovementSource string

const (
	MovementSourceOrder      MovementSource = "order"
	MovementSourceSale       MovementSource = "sale"
	MovementSourceAdjustment MovementSource = "adjustment"
)

// StockMovement is one committed change to a product's stock.
// Quantity is the change actually applied, after any clamping at zero.
type StockMovement struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	ProductID   uuid.UUID      `json:"product" db:"product_id"`
	UserID      uuid.UUID      `json:"user" db:"user_id"`
	Source      MovementSource `json:"source" db:"source"`
	SourceID    int64          `json:"sourceId,omitempty" db:"source_id"`
	Quantity    int            `json:"quantity" db:"quantity"`
	StockBefore int            `json:"stockBefore" db:"stock_before"`
	StockAfter  int            `json:"stockAfter" db:"stock_after"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
}
