package service

import (
	"errors"
	"fmt"

	"backoffice/internal/domain"
	"backoffice/internal/inventory"
	"backoffice/internal/repository"
)

// knownErrors are returned to callers unwrapped so handlers can map them
var knownErrors = []error{
	repository.ErrProductNotFound,
	repository.ErrProductAlreadyExists,
	repository.ErrCustomerNotFound,
	repository.ErrOrderNotFound,
	repository.ErrSaleNotFound,
	repository.ErrUserNotFound,
	repository.ErrUserAlreadyExists,
	inventory.ErrProductNotFound,
	inventory.ErrInsufficientStock,
	ErrWeakPassword,
}

func wrapUnlessKnown(err error, msg string) error {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		return err
	}
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
