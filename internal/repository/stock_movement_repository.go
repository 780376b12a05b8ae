package repository

import (
	"context"
	"fmt"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

// StockMovementRepository is the append-only stock ledger
type StockMovementRepository interface {
	Create(ctx context.Context, movement *domain.StockMovement) error
	ListByProduct(ctx context.Context, userID, productID uuid.UUID, opts ListOptions) ([]*domain.StockMovement, int, error)
}

var movementSortColumns = map[string]string{
	"createdAt": "created_at",
	"quantity":  "quantity",
}

type stockMovementRepository struct {
	q Querier
}

// NewStockMovementRepository creates a new instance of StockMovementRepository
func NewStockMovementRepository(q Querier) StockMovementRepository {
	return &stockMovementRepository{q: q}
}

func (r *stockMovementRepository) Create(ctx context.Context, m *domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, user_id, source, source_id, quantity, stock_before, stock_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query, m.ID, m.ProductID, m.UserID, m.Source, m.SourceID, m.Quantity, m.StockBefore, m.StockAfter, m.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}

func (r *stockMovementRepository) ListByProduct(ctx context.Context, userID, productID uuid.UUID, opts ListOptions) ([]*domain.StockMovement, int, error) {
	limit, skip, sortBy, sortOrder := opts.Normalize(movementSortColumns)

	var total int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_movements WHERE user_id = $1 AND product_id = $2`, userID, productID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count stock movements: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, product_id, user_id, source, source_id, quantity, stock_before, stock_after, created_at
		FROM stock_movements
		WHERE user_id = $1 AND product_id = $2
		ORDER BY %s %s, id
		LIMIT $3 OFFSET $4
	`, sortBy, sortOrder)

	rows, err := r.q.QueryContext(ctx, query, userID, productID, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock movements: %w", err)
	}
	defer rows.Close()

	movements := []*domain.StockMovement{}
	for rows.Next() {
		m := &domain.StockMovement{}
		if err := rows.Scan(&m.ID, &m.ProductID, &m.UserID, &m.Source, &m.SourceID, &m.Quantity, &m.StockBefore, &m.StockAfter, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating stock movements: %w", err)
	}

	return movements, total, nil
}
