package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"cinema-ledger/internal/data/entity"
	"cinema-ledger/internal/data/repository"

	"github.com/google/uuid"
)

type filmRepository struct {
	s *Store
}

func (r *filmRepository) Create(ctx context.Context, film *entity.Film) error {
	return r.s.access(ctx, func(t *tables) error {
		if _, ok := t.films[film.ID]; ok {
			return fmt.Errorf("create film %s: duplicate id", film.ID)
		}
		t.films[film.ID] = *film
		return nil
	})
}

func (r *filmRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Film, error) {
	var found *entity.Film
	err := r.s.access(ctx, func(t *tables) error {
		if film, ok := t.films[id]; ok {
			found = &film
		}
		return nil
	})
	return found, err
}

func matchesGenre(film entity.Film, genre *string) bool {
	if genre == nil || *genre == "" {
		return true
	}
	return strings.Contains(strings.ToLower(film.Genre), strings.ToLower(*genre))
}

func (r *filmRepository) filter(t *tables, genre *string) []entity.Film {
	var films []entity.Film
	for _, film := range t.films {
		if matchesGenre(film, genre) {
			films = append(films, film)
		}
	}
	slices.SortFunc(films, func(a, b entity.Film) int {
		if c := cmp.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return films
}

func (r *filmRepository) FindAll(ctx context.Context, limit, offset int, genre *string) ([]*entity.Film, error) {
	var result []*entity.Film
	err := r.s.access(ctx, func(t *tables) error {
		for _, film := range window(r.filter(t, genre), limit, offset) {
			result = append(result, &film)
		}
		return nil
	})
	return result, err
}

func (r *filmRepository) CountAll(ctx context.Context, genre *string) (int64, error) {
	var total int64
	err := r.s.access(ctx, func(t *tables) error {
		total = int64(len(r.filter(t, genre)))
		return nil
	})
	return total, err
}

func (r *filmRepository) Update(ctx context.Context, film *entity.Film) error {
	return r.s.access(ctx, func(t *tables) error {
		if _, ok := t.films[film.ID]; !ok {
			return fmt.Errorf("film %s: %w", film.ID, repository.ErrNotFound)
		}
		t.films[film.ID] = *film
		return nil
	})
}

func (r *filmRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.access(ctx, func(t *tables) error {
		if _, ok := t.films[id]; !ok {
			return fmt.Errorf("film %s: %w", id, repository.ErrNotFound)
		}
		for _, screening := range t.screenings {
			if screening.FilmID == id {
				return fmt.Errorf("delete film %s: %w", id, repository.ErrReferenced)
			}
		}
		delete(t.films, id)
		return nil
	})
}
