package service

import (
	"context"
	"fmt"
	"strings"

	"backoffice/internal/clock"
	"backoffice/internal/domain"
	"backoffice/internal/inventory"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerInput carries the fields of a new customer
type CustomerInput struct {
	Name        string
	Email       string
	Address     string
	StoreName   string
	PhoneNumber string
	Locality    string
	Town        string
	IDNumber    string
}

// CustomerUpdate holds the editable customer fields; nil means unchanged
type CustomerUpdate struct {
	Name        *string
	Email       *string
	Address     *string
	StoreName   *string
	PhoneNumber *string
	Locality    *string
	Town        *string
	IDNumber    *string
}

// CustomerService defines the interface for customer business logic
type CustomerService interface {
	Create(ctx context.Context, userID uuid.UUID, input CustomerInput) (*domain.Customer, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Customer, error)
	List(ctx context.Context, userID uuid.UUID, opts repository.ListOptions) ([]*domain.Customer, int, error)
	Update(ctx context.Context, userID, id uuid.UUID, update CustomerUpdate) (*domain.Customer, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (*domain.Customer, error)
}

type customerService struct {
	tx         repository.Transactor
	store      repository.Store
	reconciler *inventory.Reconciler
	clock      clock.Clock
	logger     *zap.Logger
}

// NewCustomerService creates a new instance of CustomerService
func NewCustomerService(tx repository.Transactor, store repository.Store, reconciler *inventory.Reconciler, clk clock.Clock, logger *zap.Logger) CustomerService {
	return &customerService{tx: tx, store: store, reconciler: reconciler, clock: clk, logger: logger}
}

func (s *customerService) Create(ctx context.Context, userID uuid.UUID, input CustomerInput) (*domain.Customer, error) {
	now := s.clock.Now()
	customer := &domain.Customer{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Address:     strings.TrimSpace(input.Address),
		StoreName:   strings.TrimSpace(input.StoreName),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		Locality:    input.Locality,
		Town:        strings.TrimSpace(input.Town),
		IDNumber:    strings.TrimSpace(input.IDNumber),
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Customers().Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Customer, error) {
	return s.store.Customers().FindByID(ctx, userID, id)
}

func (s *customerService) List(ctx context.Context, userID uuid.UUID, opts repository.ListOptions) ([]*domain.Customer, int, error) {
	customers, total, err := s.store.Customers().List(ctx, userID, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, total, nil
}

func (s *customerService) Update(ctx context.Context, userID, id uuid.UUID, update CustomerUpdate) (*domain.Customer, error) {
	customer, err := s.store.Customers().FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	setTrimmed(&customer.Name, update.Name)
	setTrimmed(&customer.Address, update.Address)
	setTrimmed(&customer.StoreName, update.StoreName)
	setTrimmed(&customer.PhoneNumber, update.PhoneNumber)
	setTrimmed(&customer.Town, update.Town)
	setTrimmed(&customer.IDNumber, update.IDNumber)
	if update.Email != nil {
		customer.Email = strings.ToLower(strings.TrimSpace(*update.Email))
	}
	if update.Locality != nil {
		customer.Locality = *update.Locality
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	customer.UpdatedAt = s.clock.Now()
	if err := s.store.Customers().Update(ctx, customer); err != nil {
		return nil, wrapUnlessKnown(err, "failed to update customer")
	}
	return customer, nil
}

// Delete removes the customer together with its sales. Stock taken by those
// sales is returned before they go.
func (s *customerService) Delete(ctx context.Context, userID, id uuid.UUID) (*domain.Customer, error) {
	var customer *domain.Customer
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		c, err := store.Customers().FindByID(ctx, userID, id)
		if err != nil {
			return err
		}

		sales, err := allSalesOf(ctx, store, userID, id)
		if err != nil {
			return err
		}
		for _, sale := range sales {
			src := inventory.Source{Kind: inventory.KindSale, ID: sale.ID, OwnerID: userID}
			if err := s.reconciler.BeforeRemove(ctx, store.Products(), store.StockMovements(), src, sale.LineItems); err != nil {
				return err
			}
		}

		if err := store.Customers().Delete(ctx, userID, id); err != nil {
			return err
		}
		customer = c
		return nil
	})
	if err != nil {
		return nil, wrapUnlessKnown(err, "failed to delete customer")
	}

	s.logger.Info("Customer deleted",
		zap.String("customer_id", id.String()),
		zap.String("user_id", userID.String()),
	)
	return customer, nil
}

// allSalesOf pages through every sale of a customer
func allSalesOf(ctx context.Context, store repository.Store, userID, customerID uuid.UUID) ([]*domain.Sale, error) {
	var all []*domain.Sale
	filter := repository.SaleFilter{
		CustomerID:  customerID,
		ListOptions: repository.ListOptions{Limit: repository.MaxLimit, SortBy: "createdAt", SortOrder: repository.SortOrderAsc},
	}
	for {
		page, total, err := store.Sales().List(ctx, userID, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list sales: %w", err)
		}
		all = append(all, page...)
		if len(page) == 0 || len(all) >= total {
			return all, nil
		}
		filter.Skip += len(page)
	}
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
