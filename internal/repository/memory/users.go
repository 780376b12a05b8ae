package memory

import (
	"context"

	"backoffice/internal/domain"
	"backoffice/internal/repository"

	"github.com/google/uuid"
)

type userRepository struct{ v *view }

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	return r.v.run(func(st *state) error {
		if _, ok := st.users[user.ID]; ok {
			return repository.ErrUserAlreadyExists
		}
		if emailTaken(st, user.Email, uuid.Nil) {
			return repository.ErrUserAlreadyExists
		}
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	return r.v.run(func(st *state) error {
		if _, ok := st.users[user.ID]; !ok {
			return repository.ErrUserNotFound
		}
		if emailTaken(st, user.Email, user.ID) {
			return repository.ErrUserAlreadyExists
		}
		st.users[user.ID] = *user
		return nil
	})
}

// Delete removes the user together with everything it owns
func (r *userRepository) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.run(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrUserNotFound
		}
		delete(st.users, id)
		for k, t := range st.tokens {
			if t.UserID == id {
				delete(st.tokens, k)
			}
		}
		for k, c := range st.customers {
			if c.UserID == id {
				delete(st.customers, k)
			}
		}
		for k, p := range st.products {
			if p.UserID == id {
				delete(st.products, k)
			}
		}
		for k, o := range st.orders {
			if o.UserID == id {
				delete(st.orders, k)
			}
		}
		for k, s := range st.sales {
			if s.UserID == id {
				delete(st.sales, k)
			}
		}
		kept := st.movements[:0:0]
		for _, m := range st.movements {
			if m.UserID != id {
				kept = append(kept, m)
			}
		}
		st.movements = kept
		return nil
	})
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *userRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

func (r *userRepository) FindByActivationToken(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, repository.ErrUserNotFound
	}
	return r.find(func(u domain.User) bool { return u.ActivationToken == token })
}

func (r *userRepository) find(match func(domain.User) bool) (*domain.User, error) {
	var found *domain.User
	err := r.v.run(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				u := u
				found = &u
				return nil
			}
		}
		return repository.ErrUserNotFound
	})
	return found, err
}

func emailTaken(st *state, email string, except uuid.UUID) bool {
	for _, u := range st.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

type refreshTokenRepository struct{ v *view }

func (r *refreshTokenRepository) Create(_ context.Context, token *domain.RefreshToken) error {
	return r.v.run(func(st *state) error {
		if _, ok := st.users[token.UserID]; !ok {
			return repository.ErrUserNotFound
		}
		st.tokens[token.Token] = *token
		return nil
	})
}

func (r *refreshTokenRepository) FindByToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	var found domain.RefreshToken
	err := r.v.run(func(st *state) error {
		t, ok := st.tokens[token]
		if !ok {
			return repository.ErrRefreshTokenNotFound
		}
		if t.Revoked {
			return repository.ErrRefreshTokenRevoked
		}
		found = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *refreshTokenRepository) Revoke(_ context.Context, userID uuid.UUID, token string) error {
	return r.v.run(func(st *state) error {
		t, ok := st.tokens[token]
		if !ok || t.UserID != userID {
			return repository.ErrRefreshTokenNotFound
		}
		t.Revoked = true
		st.tokens[token] = t
		return nil
	})
}

func (r *refreshTokenRepository) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	return r.v.run(func(st *state) error {
		for k, t := range st.tokens {
			if t.UserID == userID {
				t.Revoked = true
				st.tokens[k] = t
			}
		}
		return nil
	})
}
