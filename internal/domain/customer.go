package domain

import (
	"net/mail"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Localities are the Bogotá districts a customer can be located in.
// The empty string means the locality is unknown.
var Localities = []string{
	"",
	"Usaquén",
	"Chapinero",
	"Santa Fe",
	"San Cristóbal",
	"Usme",
	"Tunjuelito",
	"Bosa",
	"Kennedy",
	"Fontibón",
	"Engativá",
	"Suba",
	"Barrios Unidos",
	"Teusaquillo",
	"Los Mártires",
	"Antonio Nariño",
	"Puente Aranda",
	"La Candelaria",
	"Rafael Uribe Uribe",
	"Ciudad Bolívar",
	"Sumapaz",
}

// IsValidLocality reports whether s is one of Localities
func IsValidLocality(s string) bool {
	for _, l := range Localities {
		if l == s {
			return true
		}
	}
	return false
}

// Customer is a store the owner sells to
type Customer struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	Address     string    `json:"address" db:"address"`
	StoreName   string    `json:"storeName" db:"store_name"`
	PhoneNumber string    `json:"phoneNumber" db:"phone_number"`
	Locality    string    `json:"locality" db:"locality"`
	Town        string    `json:"town" db:"town"`
	IDNumber    string    `json:"idNumber" db:"id_number"`
	UserID      uuid.UUID `json:"user" db:"user_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Validate checks required fields and the email, phone and locality formats
func (c *Customer) Validate() error {
	var errs ValidationErrors
	if c.Address == "" {
		errs = append(errs, ValidationError{Field: "address", Message: "This field is required"})
	}
	if c.StoreName == "" {
		errs = append(errs, ValidationError{Field: "storeName", Message: "This field is required"})
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			errs = append(errs, ValidationError{Field: "email", Message: "Invalid email format"})
		}
	}
	if c.PhoneNumber != "" && !isNumeric(c.PhoneNumber) {
		errs = append(errs, ValidationError{Field: "phoneNumber", Message: "Invalid phone number"})
	}
	if !IsValidLocality(c.Locality) {
		errs = append(errs, ValidationError{Field: "locality", Message: "unknown locality"})
	}
	return errs.OrNil()
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
