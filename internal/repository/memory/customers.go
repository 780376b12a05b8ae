package memory

import (
	"context"
	"strings"

	"backoffice/internal/domain"
	"backoffice/internal/repository"

	"github.com/google/uuid"
)

var customerSorters = map[string]comparator[*domain.Customer]{
	"name":      byString(func(c *domain.Customer) string { return c.Name }),
	"email":     byString(func(c *domain.Customer) string { return c.Email }),
	"storeName": byString(func(c *domain.Customer) string { return c.StoreName }),
	"locality":  byString(func(c *domain.Customer) string { return c.Locality }),
	"town":      byString(func(c *domain.Customer) string { return c.Town }),
	"createdAt": func(a, b *domain.Customer) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updatedAt": func(a, b *domain.Customer) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

type customerRepository struct{ v *view }

func (r *customerRepository) Create(_ context.Context, customer *domain.Customer) error {
	return r.v.run(func(st *state) error {
		if _, ok := st.users[customer.UserID]; !ok {
			return repository.ErrUserNotFound
		}
		st.customers[customer.ID] = *customer
		return nil
	})
}

func (r *customerRepository) Update(_ context.Context, customer *domain.Customer) error {
	return r.v.run(func(st *state) error {
		c, ok := st.customers[customer.ID]
		if !ok || c.UserID != customer.UserID {
			return repository.ErrCustomerNotFound
		}
		updated := *customer
		updated.CreatedAt = c.CreatedAt
		st.customers[c.ID] = updated
		return nil
	})
}

// Delete removes the customer and, like the sales foreign key, its sales
func (r *customerRepository) Delete(_ context.Context, userID, id uuid.UUID) error {
	return r.v.run(func(st *state) error {
		c, ok := st.customers[id]
		if !ok || c.UserID != userID {
			return repository.ErrCustomerNotFound
		}
		delete(st.customers, id)
		for k, s := range st.sales {
			if s.CustomerID == id {
				delete(st.sales, k)
			}
		}
		return nil
	})
}

func (r *customerRepository) FindByID(_ context.Context, userID, id uuid.UUID) (*domain.Customer, error) {
	var found domain.Customer
	err := r.v.run(func(st *state) error {
		c, ok := st.customers[id]
		if !ok || c.UserID != userID {
			return repository.ErrCustomerNotFound
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *customerRepository) List(_ context.Context, userID uuid.UUID, opts repository.ListOptions) ([]*domain.Customer, int, error) {
	var customers []*domain.Customer
	_ = r.v.run(func(st *state) error {
		q := strings.TrimSpace(opts.TextQuery)
		for _, c := range st.customers {
			if c.UserID != userID {
				continue
			}
			if q != "" && !containsFold(c.Name, q) && !containsFold(c.StoreName, q) &&
				!containsFold(c.Email, q) && !containsFold(c.Town, q) {
				continue
			}
			c := c
			customers = append(customers, &c)
		}
		return nil
	})

	total := len(customers)
	page := sortAndPage(customers, opts, customerSorters, func(a, b *domain.Customer) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return append([]*domain.Customer{}, page...), total, nil
}
