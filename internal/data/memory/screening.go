package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"cinema-ledger/internal/data/entity"
	"cinema-ledger/internal/data/repository"

	"github.com/google/uuid"
)

type screeningRepository struct {
	s *Store
}

// checkScreening enforces what the screenings table constraints enforce.
func checkScreening(t *tables, screening *entity.Screening) error {
	if _, ok := t.films[screening.FilmID]; !ok {
		return fmt.Errorf("screening %s: film %s does not exist", screening.ID, screening.FilmID)
	}
	if _, ok := t.halls[screening.HallID]; !ok {
		return fmt.Errorf("screening %s: hall %s does not exist", screening.ID, screening.HallID)
	}
	if !screening.EndTime.After(screening.StartTime) {
		return fmt.Errorf("screening %s: end must be after start", screening.ID)
	}
	if screening.AvailableSeats < 0 {
		return fmt.Errorf("screening %s: negative seat count", screening.ID)
	}
	for _, other := range t.screenings {
		if other.ID != screening.ID && other.HallID == screening.HallID &&
			other.Overlaps(screening.StartTime, screening.EndTime) {
			return fmt.Errorf("screening in hall %s: %w", screening.HallID, repository.ErrOverlap)
		}
	}
	return nil
}

func (r *screeningRepository) Create(ctx context.Context, screening *entity.Screening) error {
	return r.s.access(ctx, func(t *tables) error {
		if _, ok := t.screenings[screening.ID]; ok {
			return fmt.Errorf("create screening %s: duplicate id", screening.ID)
		}
		if err := checkScreening(t, screening); err != nil {
			return err
		}
		t.screenings[screening.ID] = *screening
		return nil
	})
}

func (r *screeningRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Screening, error) {
	var found *entity.Screening
	err := r.s.access(ctx, func(t *tables) error {
		if screening, ok := t.screenings[id]; ok {
			found = &screening
		}
		return nil
	})
	return found, err
}

func (r *screeningRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Screening, error) {
	return r.FindByID(ctx, id)
}

func (r *screeningRepository) FindOverlapping(ctx context.Context, hallID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*entity.Screening, error) {
	var result []*entity.Screening
	err := r.s.access(ctx, func(t *tables) error {
		for _, screening := range sortedScreenings(t, func(s entity.Screening) bool {
			return s.HallID == hallID && s.ID != excludeID && s.Overlaps(start, end)
		}) {
			result = append(result, &screening)
		}
		return nil
	})
	return result, err
}

func sortedScreenings(t *tables, keep func(entity.Screening) bool) []entity.Screening {
	var screenings []entity.Screening
	for _, screening := range t.screenings {
		if keep(screening) {
			screenings = append(screenings, screening)
		}
	}
	slices.SortFunc(screenings, func(a, b entity.Screening) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return screenings
}

func matchesScreening(filter repository.ScreeningFilter) func(entity.Screening) bool {
	return func(s entity.Screening) bool {
		switch {
		case filter.FilmID != nil && s.FilmID != *filter.FilmID:
			return false
		case filter.HallID != nil && s.HallID != *filter.HallID:
			return false
		case filter.StartsFrom != nil && s.StartTime.Before(*filter.StartsFrom):
			return false
		case filter.StartsBefore != nil && !s.StartTime.Before(*filter.StartsBefore):
			return false
		}
		return true
	}
}

func (r *screeningRepository) FindAll(ctx context.Context, filter repository.ScreeningFilter) ([]*entity.Screening, error) {
	var result []*entity.Screening
	err := r.s.access(ctx, func(t *tables) error {
		for _, screening := range window(sortedScreenings(t, matchesScreening(filter)), filter.Limit, filter.Offset) {
			result = append(result, &screening)
		}
		return nil
	})
	return result, err
}

func (r *screeningRepository) CountAll(ctx context.Context, filter repository.ScreeningFilter) (int64, error) {
	var total int64
	err := r.s.access(ctx, func(t *tables) error {
		keep := matchesScreening(filter)
		for _, screening := range t.screenings {
			if keep(screening) {
				total++
			}
		}
		return nil
	})
	return total, err
}

func (r *screeningRepository) CountByFilmID(ctx context.Context, filmID uuid.UUID) (int64, error) {
	return r.CountAll(ctx, repository.ScreeningFilter{FilmID: &filmID})
}

func (r *screeningRepository) CountByHallID(ctx context.Context, hallID uuid.UUID) (int64, error) {
	return r.CountAll(ctx, repository.ScreeningFilter{HallID: &hallID})
}

func (r *screeningRepository) Update(ctx context.Context, screening *entity.Screening) error {
	return r.s.access(ctx, func(t *tables) error {
		if _, ok := t.screenings[screening.ID]; !ok {
			return fmt.Errorf("screening %s: %w", screening.ID, repository.ErrNotFound)
		}
		if err := checkScreening(t, screening); err != nil {
			return err
		}
		t.screenings[screening.ID] = *screening
		return nil
	})
}

func (r *screeningRepository) ReserveSeats(ctx context.Context, id uuid.UUID, seats int) (bool, error) {
	var reserved bool
	err := r.s.access(ctx, func(t *tables) error {
		screening, ok := t.screenings[id]
		if !ok || screening.AvailableSeats < seats {
			return nil
		}
		screening.AvailableSeats -= seats
		screening.UpdatedAt = r.s.now()
		t.screenings[id] = screening
		reserved = true
		return nil
	})
	return reserved, err
}

func (r *screeningRepository) ReleaseSeats(ctx context.Context, id uuid.UUID, seats int) error {
	return r.s.access(ctx, func(t *tables) error {
		screening, ok := t.screenings[id]
		if !ok {
			return fmt.Errorf("screening %s: %w", id, repository.ErrNotFound)
		}
		screening.AvailableSeats += seats
		screening.UpdatedAt = r.s.now()
		t.screenings[id] = screening
		return nil
	})
}

func (r *screeningRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.access(ctx, func(t *tables) error {
		if _, ok := t.screenings[id]; !ok {
			return fmt.Errorf("screening %s: %w", id, repository.ErrNotFound)
		}
		for _, booking := range t.bookings {
			if booking.ScreeningID == id {
				return fmt.Errorf("delete screening %s: %w", id, repository.ErrReferenced)
			}
		}
		delete(t.screenings, id)
		return nil
	})
}
