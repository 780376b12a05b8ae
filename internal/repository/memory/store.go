// Package memory implements the repository contracts on process memory.
// A transaction works on a clone of the state and swaps it in only when the
// callback succeeds; transactions are serialized by a single mutex.
package memory

import (
	"context"
	"maps"
	"sync"

	"backoffice/internal/domain"
	"backoffice/internal/repository"

	"github.com/google/uuid"
)

type state struct {
	users       map[uuid.UUID]domain.User
	tokens      map[string]domain.RefreshToken
	customers   map[uuid.UUID]domain.Customer
	products    map[uuid.UUID]domain.Product
	orders      map[int64]domain.Order
	sales       map[int64]domain.Sale
	movements   []domain.StockMovement
	nextOrderID int64
	nextSaleID  int64
}

func newState() state {
	return state{
		users:     map[uuid.UUID]domain.User{},
		tokens:    map[string]domain.RefreshToken{},
		customers: map[uuid.UUID]domain.Customer{},
		products:  map[uuid.UUID]domain.Product{},
		orders:    map[int64]domain.Order{},
		sales:     map[int64]domain.Sale{},
	}
}

// clone copies every map. Stored values never share line-item slices with
// callers, so a shallow copy of each map is enough.
func (s state) clone() state {
	return state{
		users:       maps.Clone(s.users),
		tokens:      maps.Clone(s.tokens),
		customers:   maps.Clone(s.customers),
		products:    maps.Clone(s.products),
		orders:      maps.Clone(s.orders),
		sales:       maps.Clone(s.sales),
		movements:   append([]domain.StockMovement(nil), s.movements...),
		nextOrderID: s.nextOrderID,
		nextSaleID:  s.nextSaleID,
	}
}

// Store is an in-memory repository.Store and repository.Transactor
type Store struct {
	mu    sync.Mutex
	state state
}

// New creates an empty Store
func New() *Store {
	return &Store{state: newState()}
}

// WithinTransaction runs fn against a private copy of the state and commits
// it only when fn returns nil.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.state.clone()
	if err := fn(ctx, &view{tx: &tx}); err != nil {
		return err
	}
	s.state = tx
	return nil
}

func (s *Store) root() *view { return &view{store: s} }

func (s *Store) Users() repository.UserRepository                 { return s.root().Users() }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return s.root().RefreshTokens() }
func (s *Store) Products() repository.ProductRepository           { return s.root().Products() }
func (s *Store) Customers() repository.CustomerRepository         { return s.root().Customers() }
func (s *Store) Orders() repository.OrderRepository               { return s.root().Orders() }
func (s *Store) Sales() repository.SaleRepository                 { return s.root().Sales() }
func (s *Store) StockMovements() repository.StockMovementRepository {
	return s.root().StockMovements()
}

// view is either bound to a transaction's state or, outside a transaction,
// locks the store around each call.
type view struct {
	store *Store
	tx    *state
}

func (v *view) run(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(&v.store.state)
}

func (v *view) Users() repository.UserRepository                 { return &userRepository{v} }
func (v *view) RefreshTokens() repository.RefreshTokenRepository { return &refreshTokenRepository{v} }
func (v *view) Products() repository.ProductRepository           { return &productRepository{v} }
func (v *view) Customers() repository.CustomerRepository         { return &customerRepository{v} }
func (v *view) Orders() repository.OrderRepository               { return &orderRepository{v} }
func (v *view) Sales() repository.SaleRepository                 { return &saleRepository{v} }
func (v *view) StockMovements() repository.StockMovementRepository {
	return &stockMovementRepository{v}
}

var (
	_ repository.Store      = (*Store)(nil)
	_ repository.Transactor = (*Store)(nil)
	_ repository.Store      = (*view)(nil)
)
