package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"cinema-ledger/internal/data/entity"
	"cinema-ledger/internal/data/repository"

	"github.com/google/uuid"
)

type bookingRepository struct {
	s *Store
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	return r.s.access(ctx, func(t *tables) error {
		if _, ok := t.bookings[booking.ID]; ok {
			return fmt.Errorf("create booking %s: duplicate id", booking.ID)
		}
		if _, ok := t.screenings[booking.ScreeningID]; !ok {
			return fmt.Errorf("booking %s: screening %s does not exist", booking.ID, booking.ScreeningID)
		}
		if _, taken := t.references[booking.BookingReference]; taken {
			return fmt.Errorf("booking reference %s: %w", booking.BookingReference, repository.ErrDuplicateReference)
		}
		t.bookings[booking.ID] = *booking
		t.references[booking.BookingReference] = booking.ID
		return nil
	})
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	var found *entity.Booking
	err := r.s.access(ctx, func(t *tables) error {
		if booking, ok := t.bookings[id]; ok {
			found = &booking
		}
		return nil
	})
	return found, err
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepository) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	var found *entity.Booking
	err := r.s.access(ctx, func(t *tables) error {
		if id, ok := t.references[reference]; ok {
			booking := t.bookings[id]
			found = &booking
		}
		return nil
	})
	return found, err
}

func (r *bookingRepository) filter(t *tables, filter repository.BookingFilter) []entity.Booking {
	var bookings []entity.Booking
	for _, booking := range t.bookings {
		if filter.ScreeningID != nil && booking.ScreeningID != *filter.ScreeningID {
			continue
		}
		if filter.Status != nil && booking.Status != *filter.Status {
			continue
		}
		bookings = append(bookings, booking)
	}
	// newest first
	slices.SortFunc(bookings, func(a, b entity.Booking) int {
		if c := b.BookingDate.Compare(a.BookingDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return bookings
}

func (r *bookingRepository) FindAll(ctx context.Context, filter repository.BookingFilter) ([]*entity.Booking, error) {
	var result []*entity.Booking
	err := r.s.access(ctx, func(t *tables) error {
		for _, booking := range window(r.filter(t, filter), filter.Limit, filter.Offset) {
			result = append(result, &booking)
		}
		return nil
	})
	return result, err
}

func (r *bookingRepository) CountAll(ctx context.Context, filter repository.BookingFilter) (int64, error) {
	var total int64
	err := r.s.access(ctx, func(t *tables) error {
		total = int64(len(r.filter(t, filter)))
		return nil
	})
	return total, err
}

func (r *bookingRepository) CountByScreeningID(ctx context.Context, screeningID uuid.UUID) (int64, error) {
	return r.CountAll(ctx, repository.BookingFilter{ScreeningID: &screeningID})
}

func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	return r.s.access(ctx, func(t *tables) error {
		current, ok := t.bookings[booking.ID]
		if !ok {
			return fmt.Errorf("booking %s: %w", booking.ID, repository.ErrNotFound)
		}
		current.CustomerName = booking.CustomerName
		current.CustomerEmail = booking.CustomerEmail
		current.CustomerPhone = booking.CustomerPhone
		current.Status = booking.Status
		current.UpdatedAt = booking.UpdatedAt
		t.bookings[booking.ID] = current
		return nil
	})
}
