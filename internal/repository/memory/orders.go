package memory

import (
	"cmp"
	"context"
	"strconv"
	"strings"

	"backoffice/internal/domain"
	"backoffice/internal/repository"

	"github.com/google/uuid"
)

var orderSorters = map[string]comparator[*domain.Order]{
	"orderDate":  func(a, b *domain.Order) int { return a.OrderDate.Compare(b.OrderDate) },
	"totalPrice": func(a, b *domain.Order) int { return a.TotalPrice.Cmp(b.TotalPrice) },
	"createdAt":  func(a, b *domain.Order) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updatedAt":  func(a, b *domain.Order) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

type orderRepository struct{ v *view }

func (r *orderRepository) Create(_ context.Context, order *domain.Order) error {
	return r.v.run(func(st *state) error {
		if _, ok := st.users[order.UserID]; !ok {
			return repository.ErrUserNotFound
		}
		st.nextOrderID++
		order.ID = st.nextOrderID
		stored := *order
		stored.LineItems = order.LineItems.Clone()
		st.orders[order.ID] = stored
		return nil
	})
}

func (r *orderRepository) Update(_ context.Context, order *domain.Order) error {
	return r.v.run(func(st *state) error {
		o, ok := st.orders[order.ID]
		if !ok || o.UserID != order.UserID {
			return repository.ErrOrderNotFound
		}
		o.OrderDate = order.OrderDate
		o.TotalPrice = order.TotalPrice
		o.LineItems = order.LineItems.Clone()
		o.UpdatedAt = order.UpdatedAt
		st.orders[o.ID] = o
		return nil
	})
}

func (r *orderRepository) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	return r.v.run(func(st *state) error {
		o, ok := st.orders[id]
		if !ok || o.UserID != userID {
			return repository.ErrOrderNotFound
		}
		delete(st.orders, id)
		return nil
	})
}

func (r *orderRepository) FindByID(_ context.Context, userID uuid.UUID, id int64) (*domain.Order, error) {
	var found domain.Order
	err := r.v.run(func(st *state) error {
		o, ok := st.orders[id]
		if !ok || o.UserID != userID {
			return repository.ErrOrderNotFound
		}
		found = o
		found.LineItems = o.LineItems.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, userID uuid.UUID, id int64) (*domain.Order, error) {
	return r.FindByID(ctx, userID, id)
}

func (r *orderRepository) List(_ context.Context, userID uuid.UUID, opts repository.ListOptions) ([]*domain.Order, int, error) {
	var orders []*domain.Order
	_ = r.v.run(func(st *state) error {
		q := strings.TrimSpace(opts.TextQuery)
		for _, o := range st.orders {
			if o.UserID != userID {
				continue
			}
			if q != "" && !strings.HasPrefix(strconv.FormatInt(o.ID, 10), q) {
				continue
			}
			o := o
			o.LineItems = o.LineItems.Clone()
			orders = append(orders, &o)
		}
		return nil
	})

	total := len(orders)
	page := sortAndPage(orders, opts, orderSorters, func(a, b *domain.Order) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return append([]*domain.Order{}, page...), total, nil
}

var saleSorters = map[string]comparator[*domain.Sale]{
	"saleDate":       func(a, b *domain.Sale) int { return a.SaleDate.Compare(b.SaleDate) },
	"totalPrice":     func(a, b *domain.Sale) int { return a.TotalPrice.Cmp(b.TotalPrice) },
	"partialPayment": func(a, b *domain.Sale) int { return a.PartialPayment.Cmp(b.PartialPayment) },
	"owes":           func(a, b *domain.Sale) int { return compareBool(a.Owes, b.Owes) },
	"createdAt":      func(a, b *domain.Sale) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updatedAt":      func(a, b *domain.Sale) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

type saleRepository struct{ v *view }

func (r *saleRepository) Create(_ context.Context, sale *domain.Sale) error {
	return r.v.run(func(st *state) error {
		if _, ok := st.users[sale.UserID]; !ok {
			return repository.ErrUserNotFound
		}
		if _, ok := st.customers[sale.CustomerID]; !ok {
			return repository.ErrCustomerNotFound
		}
		st.nextSaleID++
		sale.ID = st.nextSaleID
		stored := *sale
		stored.LineItems = sale.LineItems.Clone()
		st.sales[sale.ID] = stored
		return nil
	})
}

func (r *saleRepository) Update(_ context.Context, sale *domain.Sale) error {
	return r.v.run(func(st *state) error {
		s, ok := st.sales[sale.ID]
		if !ok || s.UserID != sale.UserID {
			return repository.ErrSaleNotFound
		}
		if _, ok := st.customers[sale.CustomerID]; !ok {
			return repository.ErrCustomerNotFound
		}
		updated := *sale
		updated.LineItems = sale.LineItems.Clone()
		updated.CreatedAt = s.CreatedAt
		st.sales[s.ID] = updated
		return nil
	})
}

func (r *saleRepository) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	return r.v.run(func(st *state) error {
		s, ok := st.sales[id]
		if !ok || s.UserID != userID {
			return repository.ErrSaleNotFound
		}
		delete(st.sales, id)
		return nil
	})
}

func (r *saleRepository) FindByID(_ context.Context, userID uuid.UUID, id int64) (*domain.Sale, error) {
	var found domain.Sale
	err := r.v.run(func(st *state) error {
		s, ok := st.sales[id]
		if !ok || s.UserID != userID {
			return repository.ErrSaleNotFound
		}
		found = s
		found.LineItems = s.LineItems.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *saleRepository) FindByIDForUpdate(ctx context.Context, userID uuid.UUID, id int64) (*domain.Sale, error) {
	return r.FindByID(ctx, userID, id)
}

func (r *saleRepository) List(_ context.Context, userID uuid.UUID, filter repository.SaleFilter) ([]*domain.Sale, int, error) {
	var sales []*domain.Sale
	_ = r.v.run(func(st *state) error {
		q := strings.TrimSpace(filter.TextQuery)
		for _, s := range st.sales {
			if s.UserID != userID {
				continue
			}
			if filter.CustomerID != uuid.Nil && s.CustomerID != filter.CustomerID {
				continue
			}
			if q != "" && !strings.HasPrefix(strconv.FormatInt(s.ID, 10), q) {
				continue
			}
			s := s
			s.LineItems = s.LineItems.Clone()
			sales = append(sales, &s)
		}
		return nil
	})

	total := len(sales)
	page := sortAndPage(sales, filter.ListOptions, saleSorters, func(a, b *domain.Sale) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return append([]*domain.Sale{}, page...), total, nil
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
