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

var ErrSaleNotFound = errors.New("sale not found")

// SaleFilter narrows a sale listing
type SaleFilter struct {
	CustomerID uuid.UUID
	ListOptions
}

// SaleRepository defines the interface for sale data access
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	Update(ctx context.Context, sale *domain.Sale) error
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
	FindByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Sale, error)
	FindByIDForUpdate(ctx context.Context, userID uuid.UUID, id int64) (*domain.Sale, error)
	List(ctx context.Context, userID uuid.UUID, filter SaleFilter) ([]*domain.Sale, int, error)
}

var saleSortColumns = map[string]string{
	"saleDate":       "sale_date",
	"totalPrice":     "total_price",
	"partialPayment": "partial_payment",
	"owes":           "owes",
	"createdAt":      "created_at",
	"updatedAt":      "updated_at",
}

const saleColumns = `id, sale_date, customer_id, is_thirteen_dozen, owes, partial_payment, total_price, line_items, user_id, created_at, updated_at`

type saleRepository struct {
	q Querier
}

// NewSaleRepository creates a new instance of SaleRepository
func NewSaleRepository(q Querier) SaleRepository {
	return &saleRepository{q: q}
}

// Create inserts the sale and sets its generated ID
func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	items, err := marshalLineItems(sale.LineItems)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sales (sale_date, customer_id, is_thirteen_dozen, owes, partial_payment, total_price, line_items, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err = r.q.QueryRowContext(
		ctx,
		query,
		sale.SaleDate,
		sale.CustomerID,
		sale.IsThirteenDozen,
		sale.Owes,
		sale.PartialPayment,
		sale.TotalPrice,
		items,
		sale.UserID,
		sale.CreatedAt,
		sale.UpdatedAt,
	).Scan(&sale.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to create sale: %w", err)
	}

	return nil
}

// Update replaces every mutable field of an owned sale
func (r *saleRepository) Update(ctx context.Context, sale *domain.Sale) error {
	items, err := marshalLineItems(sale.LineItems)
	if err != nil {
		return err
	}

	query := `
		UPDATE sales
		SET sale_date = $3, customer_id = $4, is_thirteen_dozen = $5, owes = $6,
			partial_payment = $7, total_price = $8, line_items = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.q.ExecContext(
		ctx,
		query,
		sale.ID,
		sale.UserID,
		sale.SaleDate,
		sale.CustomerID,
		sale.IsThirteenDozen,
		sale.Owes,
		sale.PartialPayment,
		sale.TotalPrice,
		items,
		sale.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to update sale: %w", err)
	}

	return checkAffected(result, ErrSaleNotFound)
}

// Delete removes an owned sale
func (r *saleRepository) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM sales WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}

	return checkAffected(result, ErrSaleNotFound)
}

// FindByID retrieves a sale owned by userID
func (r *saleRepository) FindByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Sale, error) {
	return r.findOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 AND user_id = $2`, id, userID)
}

// FindByIDForUpdate retrieves an owned sale and locks its row
func (r *saleRepository) FindByIDForUpdate(ctx context.Context, userID uuid.UUID, id int64) (*domain.Sale, error) {
	return r.findOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
}

func (r *saleRepository) findOne(ctx context.Context, query string, id int64, userID uuid.UUID) (*domain.Sale, error) {
	sale, err := scanSale(r.q.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale by ID: %w", err)
	}
	return sale, nil
}

// List retrieves a page of owned sales, optionally for one customer.
// TextQuery matches the numeric ID.
func (r *saleRepository) List(ctx context.Context, userID uuid.UUID, filter SaleFilter) ([]*domain.Sale, int, error) {
	limit, skip, sortBy, sortOrder := filter.Normalize(saleSortColumns)

	conditions := []string{"user_id = $1"}
	args := []any{userID}
	if filter.CustomerID != uuid.Nil {
		args = append(args, filter.CustomerID)
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.TextQuery); q != "" {
		args = append(args, q+"%")
		conditions = append(conditions, fmt.Sprintf("id::text LIKE $%d", len(args)))
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM sales "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sales
		%s
		ORDER BY %s %s, id
		LIMIT $%d OFFSET $%d
	`, saleColumns, whereClause, sortBy, sortOrder, len(args)+1, len(args)+2)
	args = append(args, limit, skip)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating sales: %w", err)
	}

	return sales, total, nil
}

func scanSale(row rowScanner) (*domain.Sale, error) {
	sale := &domain.Sale{}
	var items []byte
	err := row.Scan(
		&sale.ID,
		&sale.SaleDate,
		&sale.CustomerID,
		&sale.IsThirteenDozen,
		&sale.Owes,
		&sale.PartialPayment,
		&sale.TotalPrice,
		&items,
		&sale.UserID,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sale.LineItems, err = unmarshalLineItems(items); err != nil {
		return nil, err
	}
	return sale, nil
}
