package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
	FindByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Order, error)
	// FindByIDForUpdate locks the order row so concurrent edits of the same
	// order reconcile one after another.
	FindByIDForUpdate(ctx context.Context, userID uuid.UUID, id int64) (*domain.Order, error)
	List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*domain.Order, int, error)
}

var orderSortColumns = map[string]string{
	"orderDate":  "order_date",
	"totalPrice": "total_price",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

const orderColumns = `id, order_date, total_price, line_items, user_id, created_at, updated_at`

type orderRepository struct {
	q Querier
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(q Querier) OrderRepository {
	return &orderRepository{q: q}
}

// Create inserts the order and sets its generated ID
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	items, err := marshalLineItems(order.LineItems)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (order_date, total_price, line_items, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err = r.q.QueryRowContext(
		ctx,
		query,
		order.OrderDate,
		order.TotalPrice,
		items,
		order.UserID,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// Update replaces the date, total and line items of an owned order
func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	items, err := marshalLineItems(order.LineItems)
	if err != nil {
		return err
	}

	query := `
		UPDATE orders
		SET order_date = $3, total_price = $4, line_items = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.q.ExecContext(ctx, query, order.ID, order.UserID, order.OrderDate, order.TotalPrice, items, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	return checkAffected(result, ErrOrderNotFound)
}

// Delete removes an owned order
func (r *orderRepository) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return checkAffected(result, ErrOrderNotFound)
}

// FindByID retrieves an order owned by userID
func (r *orderRepository) FindByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, id, userID)
}

// FindByIDForUpdate retrieves an owned order and locks its row
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, userID uuid.UUID, id int64) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
}

func (r *orderRepository) findOne(ctx context.Context, query string, id int64, userID uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(r.q.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}
	return order, nil
}

// List retrieves a page of owned orders. TextQuery matches the numeric ID.
func (r *orderRepository) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*domain.Order, int, error) {
	limit, skip, sortBy, sortOrder := opts.Normalize(orderSortColumns)

	whereClause := "WHERE user_id = $1"
	args := []any{userID}
	if q := strings.TrimSpace(opts.TextQuery); q != "" {
		args = append(args, q+"%")
		whereClause += " AND id::text LIKE $2"
	}

	var total int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY %s %s, id
		LIMIT $%d OFFSET $%d
	`, orderColumns, whereClause, sortBy, sortOrder, len(args)+1, len(args)+2)
	args = append(args, limit, skip)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, total, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var items []byte
	err := row.Scan(
		&order.ID,
		&order.OrderDate,
		&order.TotalPrice,
		&items,
		&order.UserID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if order.LineItems, err = unmarshalLineItems(items); err != nil {
		return nil, err
	}
	return order, nil
}

func marshalLineItems(items domain.LineItems) ([]byte, error) {
	if items == nil {
		items = domain.LineItems{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode line items: %w", err)
	}
	return b, nil
}

func unmarshalLineItems(b []byte) (domain.LineItems, error) {
	items := domain.LineItems{}
	if len(b) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	return items, nil
}
