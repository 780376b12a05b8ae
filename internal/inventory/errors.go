package inventory

import (
	"errors"
	"fmt"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockLimit        = errors.New("stock limit exceeded")
)

// ProductNotFoundError reports a line item whose product is missing or
// belongs to another owner.
type ProductNotFoundError struct {
	ProductID uuid.UUID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

// InsufficientStockError reports a sale line that would drive stock below zero
type InsufficientStockError struct {
	ProductID uuid.UUID
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// StockLimitError reports a line that would push stock past domain.MaxQuantity
type StockLimitError struct {
	ProductID uuid.UUID
	Available int
	Adding    int
}

func (e *StockLimitError) Error() string {
	return fmt.Sprintf("stock of product %s would exceed %d: available %d, adding %d", e.ProductID, domain.MaxQuantity, e.Available, e.Adding)
}

func (e *StockLimitError) Is(target error) bool {
	return target == ErrStockLimit
}
