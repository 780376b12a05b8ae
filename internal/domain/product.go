package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType is the kind of cookie a product line belongs to
type ProductType string

const (
	ProductTypeMaxigalleta ProductType = "Maxigalleta"
	ProductTypeMinigalleta ProductType = "Minigalleta"
	ProductTypeChips       ProductType = "Chips"
)

// ProductTypes lists every accepted product type in display order
var ProductTypes = []ProductType{
	ProductTypeMaxigalleta,
	ProductTypeMinigalleta,
	ProductTypeChips,
}

// Presentation is the packaging a product is sold in
type Presentation string

const (
	PresentationSobre         Presentation = "Sobre"
	PresentationCajaSelloPlus Presentation = "Caja Sello Plus"
	PresentationRecarga       Presentation = "Recarga"
	PresentationBombonera     Presentation = "Bombonera"
)

// Presentations lists every accepted presentation in display order
var Presentations = []Presentation{
	PresentationSobre,
	PresentationCajaSelloPlus,
	PresentationRecarga,
	PresentationBombonera,
}

// IsValidProductType reports whether s names a known product type
func IsValidProductType(s string) bool {
	for _, t := range ProductTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// IsValidPresentation reports whether s names a known presentation
func IsValidPresentation(s string) bool {
	for _, p := range Presentations {
		if string(p) == s {
			return true
		}
	}
	return false
}

// Product represents a stocked item owned by a single account
type Product struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Name         ProductType     `json:"name" db:"name"`
	Presentation Presentation    `json:"presentation" db:"presentation"`
	Weight       decimal.Decimal `json:"weight" db:"weight"`
	BasePrice    decimal.Decimal `json:"basePrice" db:"base_price"`
	SellingPrice decimal.Decimal `json:"sellingPrice" db:"selling_price"`
	Stock        int             `json:"stock" db:"stock"`
	UserID       uuid.UUID       `json:"user" db:"user_id"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// FullName combines type, presentation and weight the way products are labelled
func (p *Product) FullName() string {
	return fmt.Sprintf("%s %s %s", p.Name, p.Presentation, p.Weight.String())
}

// Validate checks the field-level invariants of a product
func (p *Product) Validate() error {
	var errs ValidationErrors
	if !IsValidProductType(string(p.Name)) {
		errs = append(errs, ValidationError{Field: "name", Message: "unknown product type"})
	}
	if !IsValidPresentation(string(p.Presentation)) {
		errs = append(errs, ValidationError{Field: "presentation", Message: "unknown presentation"})
	}
	if !p.Weight.IsPositive() {
		errs = append(errs, ValidationError{Field: "weight", Message: "weight must be greater than 0"})
	}
	if !p.BasePrice.IsPositive() {
		errs = append(errs, ValidationError{Field: "basePrice", Message: "price must be greater than 0"})
	}
	if !p.SellingPrice.IsPositive() {
		errs = append(errs, ValidationError{Field: "sellingPrice", Message: "price must be greater than 0"})
	}
	switch {
	case p.Stock < 0:
		errs = append(errs, ValidationError{Field: "stock", Message: "stock must be greater than or equal to 0"})
	case p.Stock > MaxQuantity:
		errs = append(errs, ValidationError{Field: "stock", Message: fmt.Sprintf("stock must be at most %d", MaxQuantity)})
	}
	return errs.OrNil()
}
