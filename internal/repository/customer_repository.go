package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var ErrCustomerNotFound = errors.New("customer not found")

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*domain.Customer, error)
	List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*domain.Customer, int, error)
}

var customerSortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"storeName": "store_name",
	"locality":  "locality",
	"town":      "town",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

const customerColumns = `id, name, email, address, store_name, phone_number, locality, town, id_number, user_id, created_at, updated_at`

type customerRepository struct {
	q Querier
}

// NewCustomerRepository creates a new instance of CustomerRepository
func NewCustomerRepository(q Querier) CustomerRepository {
	return &customerRepository{q: q}
}

// Create inserts a new customer
func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(
		ctx,
		query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.Address,
		customer.StoreName,
		customer.PhoneNumber,
		customer.Locality,
		customer.Town,
		customer.IDNumber,
		customer.UserID,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// Update writes the mutable fields of an owned customer
func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = $3, email = $4, address = $5, store_name = $6, phone_number = $7,
			locality = $8, town = $9, id_number = $10, updated_at = $11
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.q.ExecContext(
		ctx,
		query,
		customer.ID,
		customer.UserID,
		customer.Name,
		customer.Email,
		customer.Address,
		customer.StoreName,
		customer.PhoneNumber,
		customer.Locality,
		customer.Town,
		customer.IDNumber,
		customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	return checkAffected(result, ErrCustomerNotFound)
}

// Delete removes an owned customer
func (r *customerRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM customers WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	return checkAffected(result, ErrCustomerNotFound)
}

// FindByID retrieves a customer owned by userID
func (r *customerRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND user_id = $2`

	customer, err := scanCustomer(r.q.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer by ID: %w", err)
	}

	return customer, nil
}

// List retrieves a page of owned customers; TextQuery matches name, store name, email and town
func (r *customerRepository) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*domain.Customer, int, error) {
	limit, skip, sortBy, sortOrder := opts.Normalize(customerSortColumns)

	whereClause := "WHERE user_id = $1"
	args := []any{userID}
	if q := strings.TrimSpace(opts.TextQuery); q != "" {
		args = append(args, "%"+q+"%")
		whereClause += " AND (name ILIKE $2 OR store_name ILIKE $2 OR email ILIKE $2 OR town ILIKE $2)"
	}

	var total int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM customers
		%s
		ORDER BY %s %s, id
		LIMIT $%d OFFSET $%d
	`, customerColumns, whereClause, sortBy, sortOrder, len(args)+1, len(args)+2)
	args = append(args, limit, skip)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []*domain.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, total, nil
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	customer := &domain.Customer{}
	err := row.Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Address,
		&customer.StoreName,
		&customer.PhoneNumber,
		&customer.Locality,
		&customer.Town,
		&customer.IDNumber,
		&customer.UserID,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return customer, nil
}
