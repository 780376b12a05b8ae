package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of *sql.DB and *sql.Tx the repositories need,
// so the same repository code runs inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store groups every repository bound to the same connection or transaction
type Store interface {
	Users() UserRepository
	RefreshTokens() RefreshTokenRepository
	Products() ProductRepository
	Customers() CustomerRepository
	Orders() OrderRepository
	Sales() SaleRepository
	StockMovements() StockMovementRepository
}

// Transactor runs fn against a Store whose writes commit together or not at all
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

type sqlStore struct {
	q Querier
}

// NewStore binds all repositories to q
func NewStore(q Querier) Store {
	return &sqlStore{q: q}
}

func (s *sqlStore) Users() UserRepository                   { return NewUserRepository(s.q) }
func (s *sqlStore) RefreshTokens() RefreshTokenRepository   { return NewRefreshTokenRepository(s.q) }
func (s *sqlStore) Products() ProductRepository             { return NewProductRepository(s.q) }
func (s *sqlStore) Customers() CustomerRepository           { return NewCustomerRepository(s.q) }
func (s *sqlStore) Orders() OrderRepository                 { return NewOrderRepository(s.q) }
func (s *sqlStore) Sales() SaleRepository                   { return NewSaleRepository(s.q) }
func (s *sqlStore) StockMovements() StockMovementRepository { return NewStockMovementRepository(s.q) }

type sqlTransactor struct {
	db *sql.DB
}

// NewTransactor creates a Transactor backed by database transactions on db
func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

// WithinTransaction begins a read-committed transaction, commits when fn
// succeeds and rolls back otherwise. Row locks taken inside fn are held
// until the transaction ends.
func (t *sqlTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, NewStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// checkAffected maps a zero-row update or delete to notFound
func checkAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
