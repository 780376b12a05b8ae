package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("a product with this name, presentation and weight already exists")
)

// ProductFilter narrows a product listing
type ProductFilter struct {
	Presentation string
	ListOptions
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*domain.Product, error)
	// FindByIDForUpdate loads a product regardless of owner and, inside a
	// transaction, locks its row until commit.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	UpdateStock(ctx context.Context, id uuid.UUID, stock int, updatedAt time.Time) error
	List(ctx context.Context, userID uuid.UUID, filter ProductFilter) ([]*domain.Product, int, error)
}

var productSortColumns = map[string]string{
	"name":         "name",
	"presentation": "presentation",
	"weight":       "weight",
	"basePrice":    "base_price",
	"sellingPrice": "selling_price",
	"stock":        "stock",
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
}

const productColumns = `id, name, presentation, weight, base_price, selling_price, stock, user_id, created_at, updated_at`

type productRepository struct {
	q Querier
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(q Querier) ProductRepository {
	return &productRepository{q: q}
}

// Create inserts a new product
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, presentation, weight, base_price, selling_price, stock, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Presentation,
		product.Weight,
		product.BasePrice,
		product.SellingPrice,
		product.Stock,
		product.UserID,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update writes the mutable fields of an owned product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET base_price = $3, selling_price = $4, stock = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.q.ExecContext(
		ctx,
		query,
		product.ID,
		product.UserID,
		product.BasePrice,
		product.SellingPrice,
		product.Stock,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return checkAffected(result, ErrProductNotFound)
}

// Delete removes an owned product
func (r *productRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM products WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return checkAffected(result, ErrProductNotFound)
}

// FindByID retrieves a product owned by userID
func (r *productRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND user_id = $2`

	product, err := scanProduct(r.q.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindByIDForUpdate retrieves a product and locks its row for the current transaction
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	product, err := scanProduct(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	return product, nil
}

// UpdateStock overwrites the stock of a product
func (r *productRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int, updatedAt time.Time) error {
	result, err := r.q.ExecContext(ctx, `UPDATE products SET stock = $2, updated_at = $3 WHERE id = $1`, id, stock, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update product stock: %w", err)
	}

	return checkAffected(result, ErrProductNotFound)
}

// List retrieves a page of owned products with optional presentation and text filters
func (r *productRepository) List(ctx context.Context, userID uuid.UUID, filter ProductFilter) ([]*domain.Product, int, error) {
	limit, skip, sortBy, sortOrder := filter.Normalize(productSortColumns)

	conditions := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Presentation != "" {
		args = append(args, filter.Presentation)
		conditions = append(conditions, fmt.Sprintf("presentation = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.TextQuery); q != "" {
		args = append(args, "%"+q+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR presentation ILIKE $%d)", len(args), len(args)))
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM products "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY %s %s, id
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, sortBy, sortOrder, len(args)+1, len(args)+2)
	args = append(args, limit, skip)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Presentation,
		&product.Weight,
		&product.BasePrice,
		&product.SellingPrice,
		&product.Stock,
		&product.UserID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}
