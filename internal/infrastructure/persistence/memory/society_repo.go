package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
)

type societyRepo struct {
	store *Store
}

func (r *societyRepo) Create(ctx context.Context, society *entity.Society) error {
	return r.store.write(ctx, func() error {
		if _, exists := r.store.societies[society.ID]; exists {
			return errs.Conflict("society %s already exists", society.ID)
		}
		if r.findByName(society.Name) != nil {
			return errs.Conflict("society with name %q already exists", society.Name)
		}
		copied := *society
		r.store.societies[society.ID] = &copied
		return nil
	})
}

func (r *societyRepo) GetByID(ctx context.Context, id string) (*entity.Society, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return cloneSociety(r.store.societies[id]), nil
}

func (r *societyRepo) GetByName(ctx context.Context, name string) (*entity.Society, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return cloneSociety(r.findByName(name)), nil
}

func (r *societyRepo) Update(ctx context.Context, society *entity.Society) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.societies[society.ID]; !ok {
			return errs.NotFound("society %s not found", society.ID)
		}
		if other := r.findByName(society.Name); other != nil && other.ID != society.ID {
			return errs.Conflict("society with name %q already exists", society.Name)
		}
		r.store.societies[society.ID] = cloneSociety(society)
		return nil
	})
}

func (r *societyRepo) List(ctx context.Context, status entity.SocietyStatus) ([]*entity.Society, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	societies := make([]*entity.Society, 0, len(r.store.societies))
	for _, s := range r.store.societies {
		if status != "" && s.Status != status {
			continue
		}
		societies = append(societies, cloneSociety(s))
	}

	sort.Slice(societies, func(i, j int) bool {
		return societies[i].Name < societies[j].Name
	})
	return societies, nil
}

func (r *societyRepo) findByName(name string) *entity.Society {
	for _, s := range r.store.societies {
		if strings.EqualFold(s.Name, name) {
			return s
		}
	}
	return nil
}

func cloneSociety(s *entity.Society) *entity.Society {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
