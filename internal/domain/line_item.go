package domain

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxQuantity bounds line quantities and product stock to what the INTEGER
// stock column holds
const MaxQuantity = math.MaxInt32

// LineItem pairs a product with the quantity and price agreed for it.
// Orders and sales embed the same shape and replace the whole list on update.
type LineItem struct {
	ProductID  uuid.UUID       `json:"product"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Validate checks the positive price, quantity and total of a single line
func (li LineItem) Validate(index int) ValidationErrors {
	var errs ValidationErrors
	prefix := fmt.Sprintf("products[%d].", index)
	if li.ProductID == uuid.Nil {
		errs = append(errs, ValidationError{Field: prefix + "product", Message: "product is required"})
	}
	if !li.Price.IsPositive() {
		errs = append(errs, ValidationError{Field: prefix + "price", Message: "price must be greater than 0"})
	}
	switch {
	case li.Quantity <= 0:
		errs = append(errs, ValidationError{Field: prefix + "quantity", Message: "quantity must be greater than 0"})
	case li.Quantity > MaxQuantity:
		errs = append(errs, ValidationError{Field: prefix + "quantity", Message: fmt.Sprintf("quantity must be at most %d", MaxQuantity)})
	}
	if !li.TotalPrice.IsPositive() {
		errs = append(errs, ValidationError{Field: prefix + "totalPrice", Message: "total must be greater than 0"})
	}
	return errs
}

// LineItems is the embedded list carried by orders and sales
type LineItems []LineItem

// Validate validates every line in order
func (items LineItems) Validate() ValidationErrors {
	var errs ValidationErrors
	for i, li := range items {
		errs = append(errs, li.Validate(i)...)
	}
	return errs
}

// Total sums the line totals
func (items LineItems) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.TotalPrice)
	}
	return total
}

// QuantityOf returns the quantity of the first line referencing productID, or 0
func (items LineItems) QuantityOf(productID uuid.UUID) int {
	for _, li := range items {
		if li.ProductID == productID {
			return li.Quantity
		}
	}
	return 0
}

// Contains reports whether any line references productID
func (items LineItems) Contains(productID uuid.UUID) bool {
	for _, li := range items {
		if li.ProductID == productID {
			return true
		}
	}
	return false
}

// Clone returns a copy that does not share the backing array
func (items LineItems) Clone() LineItems {
	if items == nil {
		return nil
	}
	out := make(LineItems, len(items))
	copy(out, items)
	return out
}
