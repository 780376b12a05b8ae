package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is an incoming batch of inventory; its line items add to stock
type Order struct {
	ID         int64           `json:"id" db:"id"`
	OrderDate  time.Time       `json:"orderDate" db:"order_date"`
	TotalPrice decimal.Decimal `json:"totalPrice" db:"total_price"`
	LineItems  LineItems       `json:"products" db:"line_items"`
	UserID     uuid.UUID       `json:"user" db:"user_id"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

// Validate checks the order and all of its line items
func (o *Order) Validate() error {
	errs := o.LineItems.Validate()
	if len(o.LineItems) == 0 {
		errs = append(errs, ValidationError{Field: "products", Message: "at least one product is required"})
	}
	if o.TotalPrice.IsNegative() {
		errs = append(errs, ValidationError{Field: "totalPrice", Message: "total must be greater than or equal to 0"})
	}
	return errs.OrNil()
}
