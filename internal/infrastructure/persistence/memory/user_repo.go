package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
)

type userRepo struct {
	store *Store
}

func (r *userRepo) Create(ctx context.Context, user *entity.User) error {
	return r.store.write(ctx, func() error {
		if _, exists := r.store.users[user.ID]; exists {
			return errs.Conflict("user %s already exists", user.ID)
		}
		if r.findByEmail(user.Email) != nil {
			return errs.Conflict("user with email %s already exists", user.Email)
		}
		r.store.users[user.ID] = user.Clone()
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.users[id].Clone(), nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.findByEmail(email).Clone(), nil
}

func (r *userRepo) Update(ctx context.Context, user *entity.User) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.users[user.ID]; !ok {
			return errs.NotFound("user %s not found", user.ID)
		}
		if other := r.findByEmail(user.Email); other != nil && other.ID != user.ID {
			return errs.Conflict("user with email %s already exists", user.Email)
		}
		r.store.users[user.ID] = user.Clone()
		return nil
	})
}

func (r *userRepo) List(ctx context.Context, filter port.UserFilter) ([]*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := make([]*entity.User, 0)
	for _, u := range r.store.users {
		if filter.SocietyID != "" && u.Society() != filter.SocietyID {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		users = append(users, u.Clone())
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// findByEmail must be called with the store lock held
func (r *userRepo) findByEmail(email string) *entity.User {
	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}
