package usecase

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cinema-ledger/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCreateScreening_SeatsDefaultToCapacity(t *testing.T) {
	f := newFixture(t)
	film := f.film("Alien")
	hall := f.hall("Hall 1", 100)

	screening := f.screening(film.ID, hall.ID, at(14, 0), at(16, 0), nil)
	assert.Equal(t, 100, screening.AvailableSeats)
	assert.Equal(t, "Alien", screening.FilmTitle)
	assert.Equal(t, "Hall 1", screening.HallName)
	assert.True(t, screening.IsAvailable)

	zero := f.screening(film.ID, hall.ID, at(16, 0), at(18, 0), ptr(0))
	assert.Equal(t, 100, zero.AvailableSeats)

	explicit := f.screening(film.ID, hall.ID, at(18, 0), at(20, 0), ptr(40))
	assert.Equal(t, 40, explicit.AvailableSeats)
}

func TestCreateScreening_SeatsAboveCapacityRejected(t *testing.T) {
	f := newFixture(t)
	film := f.film("Alien")
	hall := f.hall("Hall 1", 100)

	_, err := f.svc.Screening.CreateScreening(f.ctx, &request.ScreeningRequest{
		FilmID:         film.ID,
		HallID:         hall.ID,
		StartTime:      stamp(at(14, 0)),
		EndTime:        stamp(at(16, 0)),
		Price:          10,
		AvailableSeats: ptr(101),
	})
	assert.ErrorIs(t, err, ErrSeatsExceedCapacity)
}

func TestCreateScreening_Overlap(t *testing.T) {
	f := newFixture(t)
	film := f.film("Alien")
	hall := f.hall("H", 50)
	other := f.hall("Other", 50)

	f.screening(film.ID, hall.ID, at(14, 0), at(16, 0), nil)

	create := func(hallID string, start, end time.Time) error {
		_, err := f.svc.Screening.CreateScreening(f.ctx, &request.ScreeningRequest{
			FilmID:    film.ID,
			HallID:    hallID,
			StartTime: stamp(start),
			EndTime:   stamp(end),
			Price:     10,
		})
		return err
	}

	assert.ErrorIs(t, create(hall.ID, at(15, 0), at(17, 0)), ErrScheduleConflict, "B overlaps A")
	assert.ErrorIs(t, create(hall.ID, at(13, 0), at(14, 1)), ErrScheduleConflict)
	assert.ErrorIs(t, create(hall.ID, at(14, 30), at(15, 0)), ErrScheduleConflict, "contained")
	assert.NoError(t, create(hall.ID, at(16, 0), at(18, 0)), "C adjacent to A")
	assert.NoError(t, create(hall.ID, at(12, 0), at(14, 0)), "adjacent before A")
	assert.NoError(t, create(other.ID, at(15, 0), at(17, 0)), "different hall")
}

func TestCreateScreening_ConcurrentOverlapsCommitOnce(t *testing.T) {
	f := newFixture(t)
	film := f.film("Alien")
	hall := f.hall("H", 50)

	var (
		g          errgroup.Group
		created    atomic.Int64
		conflicted atomic.Int64
	)
	// every request overlaps every other one: starts spread over 20 minutes, each 2h long
	for i := range 20 {
		start := at(14, i)
		g.Go(func() error {
			_, err := f.svc.Screening.CreateScreening(f.ctx, &request.ScreeningRequest{
				FilmID:    film.ID,
				HallID:    hall.ID,
				StartTime: stamp(start),
				EndTime:   stamp(start.Add(2 * time.Hour)),
				Price:     10,
			})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrScheduleConflict):
				conflicted.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), created.Load())
	assert.Equal(t, int64(19), conflicted.Load())

	stored, err := f.repo.Screening.CountByHallID(f.ctx, uuid.MustParse(hall.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored)
}

func TestCreateScreening_InvalidInput(t *testing.T) {
	f := newFixture(t)
	film := f.film("Alien")
	hall := f.hall("H", 50)

	tests := []struct {
		name    string
		req     request.ScreeningRequest
		wantErr error
	}{
		{"end before start", request.ScreeningRequest{FilmID: film.ID, HallID: hall.ID, StartTime: stamp(at(16, 0)), EndTime: stamp(at(14, 0)), Price: 10}, ErrInvalidInterval},
		{"end equals start", request.ScreeningRequest{FilmID: film.ID, HallID: hall.ID, StartTime: stamp(at(16, 0)), EndTime: stamp(at(16, 0)), Price: 10}, ErrInvalidInterval},
		{"unknown film", request.ScreeningRequest{FilmID: uuid.NewString(), HallID: hall.ID, StartTime: stamp(at(14, 0)), EndTime: stamp(at(16, 0)), Price: 10}, ErrNotFound},
		{"unknown hall", request.ScreeningRequest{FilmID: film.ID, HallID: uuid.NewString(), StartTime: stamp(at(14, 0)), EndTime: stamp(at(16, 0)), Price: 10}, ErrNotFound},
		{"zero price", request.ScreeningRequest{FilmID: film.ID, HallID: hall.ID, StartTime: stamp(at(14, 0)), EndTime: stamp(at(16, 0))}, ErrValidation},
		{"bad time", request.ScreeningRequest{FilmID: film.ID, HallID: hall.ID, StartTime: "tomorrow", EndTime: stamp(at(16, 0)), Price: 10}, ErrValidation},
		{"sub-cent price", request.ScreeningRequest{FilmID: film.ID, HallID: hall.ID, StartTime: stamp(at(14, 0)), EndTime: stamp(at(16, 0)), Price: 0.105}, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Screening.CreateScreening(f.ctx, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateScreening(t *testing.T) {
	f := newFixture(t)
	film := f.film("Alien")
	hall := f.hall("H", 50)
	big := f.hall("Big", 200)

	a := f.screening(film.ID, hall.ID, at(14, 0), at(16, 0), nil)
	f.screening(film.ID, hall.ID, at(17, 0), at(19, 0), nil)

	t.Run("moving within its own interval does not conflict with itself", func(t *testing.T) {
		updated, err := f.svc.Screening.UpdateScreening(f.ctx, a.ID, &request.ScreeningUpdateRequest{
			StartTime: ptr(stamp(at(14, 30))),
			EndTime:   ptr(stamp(at(16, 30))),
		})
		require.NoError(t, err)
		assert.Equal(t, at(14, 30), updated.StartTime.UTC())
	})

	t.Run("overlapping the next screening conflicts", func(t *testing.T) {
		_, err := f.svc.Screening.UpdateScreening(f.ctx, a.ID, &request.ScreeningUpdateRequest{
			EndTime: ptr(stamp(at(17, 30))),
		})
		assert.ErrorIs(t, err, ErrScheduleConflict)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := f.svc.Screening.UpdateScreening(f.ctx, a.ID, &request.ScreeningUpdateRequest{
			EndTime: ptr(stamp(at(13, 0))),
		})
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("price change keeps seats", func(t *testing.T) {
		updated, err := f.svc.Screening.UpdateScreening(f.ctx, a.ID, &request.ScreeningUpdateRequest{Price: ptr(20.0)})
		require.NoError(t, err)
		assert.InDelta(t, 20.0, updated.Price, 0.001)
		assert.Equal(t, 50, updated.AvailableSeats)
	})

	t.Run("sub-cent price is refused", func(t *testing.T) {
		_, err := f.svc.Screening.UpdateScreening(f.ctx, a.ID, &request.ScreeningUpdateRequest{Price: ptr(12.345)})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("hall change without bookings reseeds seats", func(t *testing.T) {
		updated, err := f.svc.Screening.UpdateScreening(f.ctx, a.ID, &request.ScreeningUpdateRequest{HallID: &big.ID})
		require.NoError(t, err)
		assert.Equal(t, 200, updated.AvailableSeats)
		assert.Equal(t, "Big", updated.HallName)
	})

	t.Run("hall change with bookings is refused", func(t *testing.T) {
		_, err := f.book(a.ID, 2)
		require.NoError(t, err)

		_, err = f.svc.Screening.UpdateScreening(f.ctx, a.ID, &request.ScreeningUpdateRequest{HallID: &hall.ID})
		assert.ErrorIs(t, err, ErrInUse)
		assert.Equal(t, 198, f.seatsLeft(a.ID))
	})

	t.Run("unknown screening", func(t *testing.T) {
		_, err := f.svc.Screening.UpdateScreening(f.ctx, uuid.NewString(), &request.ScreeningUpdateRequest{Price: ptr(9.0)})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestHallCapacityChangeLeavesScreeningsAlone(t *testing.T) {
	f := newFixture(t)
	screening := f.show(80, nil)

	_, err := f.svc.Hall.UpdateHall(f.ctx, screening.HallID, &request.HallUpdateRequest{Capacity: ptr(20)})
	require.NoError(t, err)
	assert.Equal(t, 80, f.seatsLeft(screening.ID))
}

func TestDeleteScreening_RestrictedByBookings(t *testing.T) {
	f := newFixture(t)
	screening := f.show(10, nil)

	booking, err := f.book(screening.ID, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Screening.DeleteScreening(f.ctx, screening.ID), ErrInUse)

	// a cancelled booking still references the screening
	_, err = f.svc.Booking.CancelBooking(f.ctx, booking.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Screening.DeleteScreening(f.ctx, screening.ID), ErrInUse)

	film := f.film("Other")
	lonely := f.screening(film.ID, screening.HallID, at(21, 0), at(23, 0), nil)
	require.NoError(t, f.svc.Screening.DeleteScreening(f.ctx, lonely.ID))
	_, err = f.svc.Screening.GetScreening(f.ctx, lonely.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListScreenings_OnlyFutureWithFilters(t *testing.T) {
	f := newFixture(t)
	alien := f.film("Alien")
	heat := f.film("Heat")
	hall := f.hall("H", 50)

	f.screening(alien.ID, hall.ID, at(9, 0), at(11, 0), nil) // already over
	f.screening(alien.ID, hall.ID, at(13, 0), at(15, 0), nil)
	f.screening(heat.ID, hall.ID, at(15, 0), at(17, 0), nil)
	f.screening(alien.ID, hall.ID, at(13, 0).AddDate(0, 0, 1), at(15, 0).AddDate(0, 0, 1), nil)

	all, err := f.svc.Screening.ListScreenings(f.ctx, &request.ScreeningListRequest{})
	require.NoError(t, err)
	require.Len(t, all.Data, 3)
	assert.Equal(t, int64(3), all.Pagination.Total)
	assert.True(t, all.Data[0].StartTime.Before(all.Data[1].StartTime))

	alienOnly, err := f.svc.Screening.ListScreenings(f.ctx, &request.ScreeningListRequest{FilmID: &alien.ID})
	require.NoError(t, err)
	assert.Len(t, alienOnly.Data, 2)

	today, err := f.svc.Screening.ListScreenings(f.ctx, &request.ScreeningListRequest{Date: ptr("2030-05-01")})
	require.NoError(t, err)
	assert.Len(t, today.Data, 2)

	_, err = f.svc.Screening.ListScreenings(f.ctx, &request.ScreeningListRequest{Date: ptr("05/01/2030")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListUpcoming_LimitAndCache(t *testing.T) {
	f := newFixture(t)
	film := f.film("Alien")
	hall := f.hall("H", 5)

	var ids []string
	for i := range 12 {
		start := at(13, 0).Add(time.Duration(i) * time.Hour)
		ids = append(ids, f.screening(film.ID, hall.ID, start, start.Add(time.Hour), nil).ID)
	}

	views, err := f.svc.Screening.ListUpcoming(f.ctx, &request.UpcomingScreeningsRequest{})
	require.NoError(t, err)
	require.Len(t, views, 10, "default limit")
	assert.Equal(t, ids[0], views[0].ID)

	views, err = f.svc.Screening.ListUpcoming(f.ctx, &request.UpcomingScreeningsRequest{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, views, 3)

	views, err = f.svc.Screening.ListUpcoming(f.ctx, &request.UpcomingScreeningsRequest{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, views, 12)

	// a booking invalidates the cached window
	_, err = f.book(ids[0], 5)
	require.NoError(t, err)
	views, err = f.svc.Screening.ListUpcoming(f.ctx, &request.UpcomingScreeningsRequest{Limit: 1})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Zero(t, views[0].AvailableSeats)
	assert.False(t, views[0].IsAvailable)

	// served from cache, entries that started since are dropped
	invalidations := f.listings.invalidations
	f.now = at(13, 30)
	views, err = f.svc.Screening.ListUpcoming(f.ctx, &request.UpcomingScreeningsRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, invalidations, f.listings.invalidations)
	require.Len(t, views, 2)
	assert.Equal(t, ids[1], views[0].ID)
}

func TestListUpcoming_FilmAndDate(t *testing.T) {
	f := newFixture(t)
	alien := f.film("Alien")
	heat := f.film("Heat")
	hall := f.hall("H", 5)

	f.screening(alien.ID, hall.ID, at(14, 0), at(16, 0), nil)
	f.screening(heat.ID, hall.ID, at(16, 0), at(18, 0), nil)
	f.screening(heat.ID, hall.ID, at(14, 0).AddDate(0, 0, 2), at(16, 0).AddDate(0, 0, 2), nil)

	views, err := f.svc.Screening.ListUpcoming(f.ctx, &request.UpcomingScreeningsRequest{FilmID: &heat.ID})
	require.NoError(t, err)
	assert.Len(t, views, 2)

	views, err = f.svc.Screening.ListUpcoming(f.ctx, &request.UpcomingScreeningsRequest{FilmID: &heat.ID, Date: ptr("2030-05-03")})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Heat", views[0].FilmTitle)
}
