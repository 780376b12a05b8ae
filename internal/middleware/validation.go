package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"backoffice/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// compare decimals numerically so gt/gte work on money fields
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	mustRegister("product_type", func(fl validator.FieldLevel) bool {
		return domain.IsValidProductType(fl.Field().String())
	})
	mustRegister("presentation", func(fl validator.FieldLevel) bool {
		return domain.IsValidPresentation(fl.Field().String())
	})
	mustRegister("locality", func(fl validator.FieldLevel) bool {
		return domain.IsValidLocality(fl.Field().String())
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return ValidateRequest(v)
}

// FormatValidationErrors converts validator errors to field errors. Anything
// else yields nil.
func FormatValidationErrors(err error) domain.ValidationErrors {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	errs := make(domain.ValidationErrors, 0, len(validationErrors))
	for _, e := range validationErrors {
		errs = append(errs, domain.ValidationError{
			Field:   fieldPath(e),
			Message: getErrorMessage(e),
		})
	}
	return errs
}

// fieldPath drops the root struct name from the namespace, so nested line
// items read "products[0].quantity"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	case "lt":
		return "Value must be less than " + e.Param()
	case "numeric":
		return "Value must contain only digits"
	case "product_type":
		return "unknown product type"
	case "presentation":
		return "unknown presentation"
	case "locality":
		return "unknown locality"
	default:
		return "Invalid value"
	}
}
