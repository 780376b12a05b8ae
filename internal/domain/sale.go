package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale records units leaving inventory to a customer
type Sale struct {
	ID              int64           `json:"id" db:"id"`
	SaleDate        time.Time       `json:"saleDate" db:"sale_date"`
	CustomerID      uuid.UUID       `json:"customer" db:"customer_id"`
	IsThirteenDozen bool            `json:"isThirteenDozen" db:"is_thirteen_dozen"`
	Owes            bool            `json:"owes" db:"owes"`
	PartialPayment  decimal.Decimal `json:"partialPayment" db:"partial_payment"`
	TotalPrice      decimal.Decimal `json:"totalPrice" db:"total_price"`
	LineItems       LineItems       `json:"products" db:"line_items"`
	UserID          uuid.UUID       `json:"user" db:"user_id"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// Validate checks the sale and all of its line items
func (s *Sale) Validate() error {
	errs := s.LineItems.Validate()
	if len(s.LineItems) == 0 {
		errs = append(errs, ValidationError{Field: "products", Message: "at least one product is required"})
	}
	if s.CustomerID == uuid.Nil {
		errs = append(errs, ValidationError{Field: "customer", Message: "customer is required"})
	}
	if s.PartialPayment.IsNegative() {
		errs = append(errs, ValidationError{Field: "partialPayment", Message: "value must be greater than or equal to 0"})
	}
	if !s.TotalPrice.IsPositive() {
		errs = append(errs, ValidationError{Field: "totalPrice", Message: "total must be greater than 0"})
	}
	return errs.OrNil()
}
