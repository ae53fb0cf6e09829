package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cinema-ledger/internal/data/entity"
	"cinema-ledger/internal/data/repository"
	"cinema-ledger/internal/dto/request"
	"cinema-ledger/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func TestCreateBooking_ReserveAndCancel(t *testing.T) {
	f := newFixture(t)
	screening := f.show(100, nil)
	require.Equal(t, 100, screening.AvailableSeats)

	booking, err := f.book(screening.ID, 30)
	require.NoError(t, err)

	assert.Equal(t, 70, f.seatsLeft(screening.ID))
	assert.InDelta(t, 30*12.50, booking.TotalPrice, 0.001)
	assert.Equal(t, entity.BookingStatusPending, booking.Status)
	assert.True(t, utils.IsBookingReference(booking.BookingReference))
	assert.Equal(t, "Heat", booking.FilmTitle)
	assert.Equal(t, "Heat - 01.05.2030 18:00", booking.ScreeningInfo)
	assert.Equal(t, baseNow, booking.BookingDate)

	cancelled, err := f.svc.Booking.CancelBooking(f.ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, 100, f.seatsLeft(screening.ID))
}

func TestCreateBooking_CapacityNeutralCycles(t *testing.T) {
	f := newFixture(t)
	screening := f.show(40, nil)

	for seats := 1; seats <= 40; seats += 13 {
		before := f.seatsLeft(screening.ID)

		booking, err := f.book(screening.ID, seats)
		require.NoError(t, err)
		assert.Equal(t, before-seats, f.seatsLeft(screening.ID))

		_, err = f.svc.Booking.CancelBooking(f.ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, before, f.seatsLeft(screening.ID), "seats=%d", seats)
	}
}

func TestCreateBooking_InsufficientSeats(t *testing.T) {
	f := newFixture(t)
	screening := f.show(100, ptr(5))

	_, err := f.book(screening.ID, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientSeats)

	var insufficient *InsufficientSeatsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Available)
	assert.Equal(t, 10, insufficient.Requested)

	assert.Equal(t, 5, f.seatsLeft(screening.ID))
	total, err := f.repo.Booking.CountAll(f.ctx, repository.BookingFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateBooking_Rejections(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	tests := []struct {
		name    string
		req     request.BookingRequest
		wantErr error
	}{
		{
			name:    "zero seats",
			req:     request.BookingRequest{ScreeningID: screening.ID, CustomerName: "A", CustomerEmail: "a@example.com", CustomerPhone: "1", Seats: 0},
			wantErr: ErrInvalidSeatCount,
		},
		{
			name:    "negative seats",
			req:     request.BookingRequest{ScreeningID: screening.ID, CustomerName: "A", CustomerEmail: "a@example.com", CustomerPhone: "1", Seats: -2},
			wantErr: ErrInvalidSeatCount,
		},
		{
			name:    "unknown screening",
			req:     request.BookingRequest{ScreeningID: uuid.NewString(), CustomerName: "A", CustomerEmail: "a@example.com", CustomerPhone: "1", Seats: 1},
			wantErr: ErrNotFound,
		},
		{
			name:    "bad email",
			req:     request.BookingRequest{ScreeningID: screening.ID, CustomerName: "A", CustomerEmail: "nope", CustomerPhone: "1", Seats: 1},
			wantErr: ErrValidation,
		},
		{
			name:    "cancelled as initial status",
			req:     request.BookingRequest{ScreeningID: screening.ID, CustomerName: "A", CustomerEmail: "a@example.com", CustomerPhone: "1", Seats: 1, Status: ptr("cancelled")},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Booking.CreateBooking(f.ctx, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 10, f.seatsLeft(screening.ID))
		})
	}
}

func TestCreateBooking_ConfirmedInitialStatus(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	booking, err := f.svc.Booking.CreateBooking(f.ctx, &request.BookingRequest{
		ScreeningID:   screening.ID,
		CustomerName:  "Ann",
		CustomerEmail: "ann@example.com",
		CustomerPhone: "123",
		Seats:         2,
		Status:        ptr("confirmed"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)
}

func TestCreateBooking_ScreeningAlreadyStarted(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	f.now = at(18, 0)
	_, err := f.book(screening.ID, 1)
	assert.ErrorIs(t, err, ErrScreeningAlreadyStarted)

	f.now = at(19, 0)
	_, err = f.book(screening.ID, 1)
	assert.ErrorIs(t, err, ErrScreeningAlreadyStarted)
	assert.Equal(t, 10, f.seatsLeft(screening.ID))
}

func TestCancelBooking_AlreadyCancelled(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	booking, err := f.book(screening.ID, 4)
	require.NoError(t, err)
	_, err = f.svc.Booking.CancelBooking(f.ctx, booking.ID)
	require.NoError(t, err)
	afterCancel := f.seatsLeft(screening.ID)

	_, err = f.svc.Booking.CancelBooking(f.ctx, booking.ID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, afterCancel, f.seatsLeft(screening.ID))

	_, err = f.svc.Booking.CancelBooking(f.ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBooking_ConcurrentReservationsNeverOverbook(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	var (
		g        errgroup.Group
		reserved atomic.Int64
		rejected atomic.Int64
	)
	// 15 attempts of 1..3 seats sum to 30 against 10 seats
	for i := range 15 {
		seats := i%3 + 1
		g.Go(func() error {
			_, err := f.book(screening.ID, seats)
			switch {
			case err == nil:
				reserved.Add(int64(seats))
			case errors.Is(err, ErrInsufficientSeats):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.LessOrEqual(t, reserved.Load(), int64(10))
	assert.Positive(t, rejected.Load())
	assert.Equal(t, 10-int(reserved.Load()), f.seatsLeft(screening.ID))

	bookings, err := f.svc.Booking.ListBookings(f.ctx, &request.BookingListRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 100},
		ScreeningID:      &screening.ID,
	})
	require.NoError(t, err)

	var booked int
	for _, b := range bookings.Data {
		booked += b.Seats
	}
	assert.Equal(t, int(reserved.Load()), booked)
}

func TestCreateBooking_ConcurrentSingleSeats(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	var (
		g  errgroup.Group
		ok atomic.Int64
	)
	for range 12 {
		g.Go(func() error {
			if _, err := f.book(screening.ID, 1); err == nil {
				ok.Add(1)
			} else if !errors.Is(err, ErrInsufficientSeats) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(10), ok.Load())
	assert.Zero(t, f.seatsLeft(screening.ID))
}

func sequence(refs ...string) func() string {
	var i int
	return func() string {
		ref := refs[min(i, len(refs)-1)]
		i++
		return ref
	}
}

func TestCreateBooking_ReferenceCollisionRetries(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	svc := newBookingService(f.repo, f.listings, f.clock(), f.config, zap.NewNop())
	svc.newReference = sequence("AAAA0000", "AAAA0000", "AAAA0000", "BBBB1111")

	first, err := svc.CreateBooking(f.ctx, &request.BookingRequest{
		ScreeningID: screening.ID, CustomerName: "A", CustomerEmail: "a@example.com", CustomerPhone: "1", Seats: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "AAAA0000", first.BookingReference)

	second, err := svc.CreateBooking(f.ctx, &request.BookingRequest{
		ScreeningID: screening.ID, CustomerName: "B", CustomerEmail: "b@example.com", CustomerPhone: "2", Seats: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "BBBB1111", second.BookingReference)
	assert.Equal(t, 7, f.seatsLeft(screening.ID))
}

func TestCreateBooking_ReferenceExhaustion(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	svc := newBookingService(f.repo, f.listings, f.clock(), f.config, zap.NewNop())
	svc.newReference = sequence("ZZZZ9999")

	req := &request.BookingRequest{
		ScreeningID: screening.ID, CustomerName: "A", CustomerEmail: "a@example.com", CustomerPhone: "1", Seats: 1,
	}
	_, err := svc.CreateBooking(f.ctx, req)
	require.NoError(t, err)

	_, err = svc.CreateBooking(f.ctx, req)
	assert.ErrorIs(t, err, ErrReferenceGenerationExhausted)
	assert.Equal(t, 9, f.seatsLeft(screening.ID))
}

func TestBookingReferences_UniqueAndWellFormed(t *testing.T) {
	f := newFixture(t)
	screening := f.show(500, nil)

	seen := make(map[string]bool)
	for range 200 {
		booking, err := f.book(screening.ID, 1)
		require.NoError(t, err)
		assert.True(t, utils.IsBookingReference(booking.BookingReference), booking.BookingReference)
		assert.False(t, seen[booking.BookingReference], "duplicate %s", booking.BookingReference)
		seen[booking.BookingReference] = true
	}
}

type failingReserve struct {
	repository.ScreeningRepository
}

func (failingReserve) ReserveSeats(context.Context, uuid.UUID, int) (bool, error) {
	return false, errors.New("write failed")
}

func TestCreateBooking_RollsBackWhenDecrementFails(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	broken := *f.repo
	broken.Screening = failingReserve{f.repo.Screening}
	svc := newBookingService(&broken, f.listings, f.clock(), f.config, zap.NewNop())

	_, err := svc.CreateBooking(f.ctx, &request.BookingRequest{
		ScreeningID: screening.ID, CustomerName: "A", CustomerEmail: "a@example.com", CustomerPhone: "1", Seats: 3,
	})
	require.Error(t, err)

	total, err := f.repo.Booking.CountAll(f.ctx, repository.BookingFilter{})
	require.NoError(t, err)
	assert.Zero(t, total, "booking insert must roll back with the seat decrement")
	assert.Equal(t, 10, f.seatsLeft(screening.ID))
}

func TestGetBookingByReference(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	booking, err := f.book(screening.ID, 2)
	require.NoError(t, err)

	found, err := f.svc.Booking.GetBookingByReference(f.ctx, booking.BookingReference)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, found.ID)

	_, err = f.svc.Booking.GetBookingByReference(f.ctx, "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Booking.GetBookingByReference(f.ctx, "ZZZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBooking_StatusTransitions(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	booking, err := f.book(screening.ID, 3)
	require.NoError(t, err)

	updated, err := f.svc.Booking.UpdateBooking(f.ctx, booking.ID, &request.BookingUpdateRequest{
		CustomerName: ptr("Ann Other"),
		Status:       ptr("confirmed"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, updated.Status)
	assert.Equal(t, "Ann Other", updated.CustomerName)
	assert.Equal(t, booking.BookingReference, updated.BookingReference)

	_, err = f.svc.Booking.UpdateBooking(f.ctx, booking.ID, &request.BookingUpdateRequest{Status: ptr("pending")})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	cancelled, err := f.svc.Booking.UpdateBooking(f.ctx, booking.ID, &request.BookingUpdateRequest{Status: ptr("cancelled")})
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.seatsLeft(screening.ID), "cancel through update refunds seats")

	_, err = f.svc.Booking.UpdateBooking(f.ctx, booking.ID, &request.BookingUpdateRequest{CustomerPhone: ptr("999")})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestListBookings_FilterAndOrder(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	first, err := f.book(screening.ID, 1)
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	second, err := f.book(screening.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.Booking.CancelBooking(f.ctx, first.ID)
	require.NoError(t, err)

	all, err := f.svc.Booking.ListBookings(f.ctx, &request.BookingListRequest{})
	require.NoError(t, err)
	require.Len(t, all.Data, 2)
	assert.Equal(t, second.ID, all.Data[0].ID, "newest first")
	assert.Equal(t, int64(2), all.Pagination.Total)

	cancelled, err := f.svc.Booking.ListBookings(f.ctx, &request.BookingListRequest{Status: ptr("cancelled")})
	require.NoError(t, err)
	require.Len(t, cancelled.Data, 1)
	assert.Equal(t, first.ID, cancelled.Data[0].ID)
}

func TestCreateBooking_StartedScreeningReportedBeforeSeats(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	f.now = at(18, 30)
	_, err := f.book(screening.ID, 11)
	assert.ErrorIs(t, err, ErrScreeningAlreadyStarted)
	assert.NotErrorIs(t, err, ErrInsufficientSeats)

	f.now = baseNow
	_, err = f.book(screening.ID, 11)
	var insufficient *InsufficientSeatsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Available)
}

type countingScreenings struct {
	repository.ScreeningRepository
	lookups atomic.Int64
}

func (c *countingScreenings) FindByID(ctx context.Context, id uuid.UUID) (*entity.Screening, error) {
	c.lookups.Add(1)
	return c.ScreeningRepository.FindByID(ctx, id)
}

type countingFilms struct {
	repository.FilmRepository
	lookups atomic.Int64
}

func (c *countingFilms) FindByID(ctx context.Context, id uuid.UUID) (*entity.Film, error) {
	c.lookups.Add(1)
	return c.FilmRepository.FindByID(ctx, id)
}

func TestListBookings_LooksUpEachScreeningOnce(t *testing.T) {
	f := newFixture(t)
	evening := f.show(20, nil)
	late := f.screening(evening.FilmID, evening.HallID, at(21, 0), at(23, 0), nil)

	for _, id := range []string{evening.ID, late.ID, evening.ID, late.ID, evening.ID} {
		_, err := f.book(id, 1)
		require.NoError(t, err)
	}

	screenings := &countingScreenings{ScreeningRepository: f.repo.Screening}
	films := &countingFilms{FilmRepository: f.repo.Film}
	counted := *f.repo
	counted.Screening = screenings
	counted.Film = films
	svc := newBookingService(&counted, f.listings, f.clock(), f.config, zap.NewNop())

	list, err := svc.ListBookings(f.ctx, &request.BookingListRequest{})
	require.NoError(t, err)
	require.Len(t, list.Data, 5)
	for _, b := range list.Data {
		assert.Equal(t, "Heat", b.FilmTitle)
	}

	assert.Equal(t, int64(2), screenings.lookups.Load())
	assert.Equal(t, int64(1), films.lookups.Load())
}

func TestCreateBooking_TotalPriceInCents(t *testing.T) {
	f := newFixture(t)
	film := f.film("Heat")
	hall := f.hall("Hall 1", 10)
	screening, err := f.svc.Screening.CreateScreening(f.ctx, &request.ScreeningRequest{
		FilmID:    film.ID,
		HallID:    hall.ID,
		StartTime: stamp(at(18, 0)),
		EndTime:   stamp(at(20, 0)),
		Price:     0.1,
	})
	require.NoError(t, err)

	booking, err := f.book(screening.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.3, booking.TotalPrice)
}
