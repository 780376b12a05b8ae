package memory

import (
	"cmp"
	"context"
	"strings"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/repository"

	"github.com/google/uuid"
)

var productSorters = map[string]comparator[*domain.Product]{
	"name":         byString(func(p *domain.Product) string { return string(p.Name) }),
	"presentation": byString(func(p *domain.Product) string { return string(p.Presentation) }),
	"weight":       func(a, b *domain.Product) int { return a.Weight.Cmp(b.Weight) },
	"basePrice":    func(a, b *domain.Product) int { return a.BasePrice.Cmp(b.BasePrice) },
	"sellingPrice": func(a, b *domain.Product) int { return a.SellingPrice.Cmp(b.SellingPrice) },
	"stock":        func(a, b *domain.Product) int { return cmp.Compare(a.Stock, b.Stock) },
	"createdAt":    func(a, b *domain.Product) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updatedAt":    func(a, b *domain.Product) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

type productRepository struct{ v *view }

func (r *productRepository) Create(_ context.Context, product *domain.Product) error {
	return r.v.run(func(st *state) error {
		if _, ok := st.users[product.UserID]; !ok {
			return repository.ErrUserNotFound
		}
		for _, p := range st.products {
			if p.ID == product.ID || (p.UserID == product.UserID &&
				p.Name == product.Name &&
				p.Presentation == product.Presentation &&
				p.Weight.Equal(product.Weight)) {
				return repository.ErrProductAlreadyExists
			}
		}
		st.products[product.ID] = *product
		return nil
	})
}

func (r *productRepository) Update(_ context.Context, product *domain.Product) error {
	return r.v.run(func(st *state) error {
		p, ok := st.products[product.ID]
		if !ok || p.UserID != product.UserID {
			return repository.ErrProductNotFound
		}
		p.BasePrice = product.BasePrice
		p.SellingPrice = product.SellingPrice
		p.Stock = product.Stock
		p.UpdatedAt = product.UpdatedAt
		st.products[p.ID] = p
		return nil
	})
}

func (r *productRepository) Delete(_ context.Context, userID, id uuid.UUID) error {
	return r.v.run(func(st *state) error {
		p, ok := st.products[id]
		if !ok || p.UserID != userID {
			return repository.ErrProductNotFound
		}
		delete(st.products, id)
		kept := st.movements[:0:0]
		for _, m := range st.movements {
			if m.ProductID != id {
				kept = append(kept, m)
			}
		}
		st.movements = kept
		return nil
	})
}

func (r *productRepository) FindByID(_ context.Context, userID, id uuid.UUID) (*domain.Product, error) {
	var found domain.Product
	err := r.v.run(func(st *state) error {
		p, ok := st.products[id]
		if !ok || p.UserID != userID {
			return repository.ErrProductNotFound
		}
		found = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// FindByIDForUpdate needs no lock of its own: transactions already hold the store mutex
func (r *productRepository) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	var found domain.Product
	err := r.v.run(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return repository.ErrProductNotFound
		}
		found = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *productRepository) UpdateStock(_ context.Context, id uuid.UUID, stock int, updatedAt time.Time) error {
	return r.v.run(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return repository.ErrProductNotFound
		}
		p.Stock = stock
		p.UpdatedAt = updatedAt
		st.products[id] = p
		return nil
	})
}

func (r *productRepository) List(_ context.Context, userID uuid.UUID, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	var products []*domain.Product
	err := r.v.run(func(st *state) error {
		q := strings.TrimSpace(filter.TextQuery)
		for _, p := range st.products {
			if p.UserID != userID {
				continue
			}
			if filter.Presentation != "" && string(p.Presentation) != filter.Presentation {
				continue
			}
			if q != "" && !containsFold(string(p.Name), q) && !containsFold(string(p.Presentation), q) {
				continue
			}
			p := p
			products = append(products, &p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	total := len(products)
	page := sortAndPage(products, filter.ListOptions, productSorters, func(a, b *domain.Product) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return append([]*domain.Product{}, page...), total, nil
}

type stockMovementRepository struct{ v *view }

func (r *stockMovementRepository) Create(_ context.Context, m *domain.StockMovement) error {
	return r.v.run(func(st *state) error {
		if _, ok := st.products[m.ProductID]; !ok {
			return repository.ErrProductNotFound
		}
		st.movements = append(st.movements, *m)
		return nil
	})
}

var movementSorters = map[string]comparator[*domain.StockMovement]{
	"createdAt": func(a, b *domain.StockMovement) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"quantity":  func(a, b *domain.StockMovement) int { return cmp.Compare(a.Quantity, b.Quantity) },
}

func (r *stockMovementRepository) ListByProduct(_ context.Context, userID, productID uuid.UUID, opts repository.ListOptions) ([]*domain.StockMovement, int, error) {
	var movements []*domain.StockMovement
	_ = r.v.run(func(st *state) error {
		for _, m := range st.movements {
			if m.UserID == userID && m.ProductID == productID {
				m := m
				movements = append(movements, &m)
			}
		}
		return nil
	})

	total := len(movements)
	// insertion order breaks ties between movements recorded in the same instant
	seq := make(map[uuid.UUID]int, len(movements))
	for i, m := range movements {
		seq[m.ID] = i
	}
	page := sortAndPage(movements, opts, movementSorters, func(a, b *domain.StockMovement) int {
		return cmp.Compare(seq[a.ID], seq[b.ID])
	})
	return append([]*domain.StockMovement{}, page...), total, nil
}
