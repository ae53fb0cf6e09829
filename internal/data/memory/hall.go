package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"

	"cinema-ledger/internal/data/entity"
	"cinema-ledger/internal/data/repository"

	"github.com/google/uuid"
)

type hallRepository struct {
	s *Store
}

func (r *hallRepository) Create(ctx context.Context, hall *entity.Hall) error {
	return r.s.access(ctx, func(t *tables) error {
		if _, ok := t.halls[hall.ID]; ok {
			return fmt.Errorf("create hall %s: duplicate id", hall.ID)
		}
		t.halls[hall.ID] = *hall
		return nil
	})
}

func (r *hallRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Hall, error) {
	var found *entity.Hall
	err := r.s.access(ctx, func(t *tables) error {
		if hall, ok := t.halls[id]; ok {
			found = &hall
		}
		return nil
	})
	return found, err
}

// FindByIDForUpdate needs no row lock, a transaction already holds the store.
func (r *hallRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Hall, error) {
	return r.FindByID(ctx, id)
}

func (r *hallRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Hall, error) {
	var result []*entity.Hall
	err := r.s.access(ctx, func(t *tables) error {
		halls := slices.Collect(maps.Values(t.halls))
		slices.SortFunc(halls, func(a, b entity.Hall) int {
			if c := cmp.Compare(a.Name, b.Name); c != 0 {
				return c
			}
			return cmp.Compare(a.ID.String(), b.ID.String())
		})
		for _, hall := range window(halls, limit, offset) {
			result = append(result, &hall)
		}
		return nil
	})
	return result, err
}

func (r *hallRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	err := r.s.access(ctx, func(t *tables) error {
		total = int64(len(t.halls))
		return nil
	})
	return total, err
}

func (r *hallRepository) Update(ctx context.Context, hall *entity.Hall) error {
	return r.s.access(ctx, func(t *tables) error {
		if _, ok := t.halls[hall.ID]; !ok {
			return fmt.Errorf("hall %s: %w", hall.ID, repository.ErrNotFound)
		}
		t.halls[hall.ID] = *hall
		return nil
	})
}

func (r *hallRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.access(ctx, func(t *tables) error {
		if _, ok := t.halls[id]; !ok {
			return fmt.Errorf("hall %s: %w", id, repository.ErrNotFound)
		}
		for _, screening := range t.screenings {
			if screening.HallID == id {
				return fmt.Errorf("delete hall %s: %w", id, repository.ErrReferenced)
			}
		}
		delete(t.halls, id)
		return nil
	})
}
