package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"cinema-ledger/internal/data/memory"
	"cinema-ledger/internal/data/repository"
	"cinema-ledger/internal/dto/request"
	"cinema-ledger/internal/dto/response"
	"cinema-ledger/pkg/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 2030-05-01 12:00 UTC; screenings are placed relative to it.
var baseNow = time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	now      time.Time
	repo     *repository.Repository
	listings *mapCache
	config   *utils.Config
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		now:      baseNow,
		listings: newMapCache(),
		config: &utils.Config{
			App:     utils.AppConfig{Timezone: "UTC"},
			Booking: utils.BookingConfig{ReferenceAttempts: 3, UpcomingDefaultLimit: 10},
		},
	}
	f.repo = memory.NewRepository(f.clock())
	f.svc = NewService(f.repo, f.listings, f.clock(), f.config, zap.NewNop())
	return f
}

func (f *fixture) clock() utils.Clock {
	return utils.ClockFunc(func() time.Time { return f.now })
}

// at returns baseNow's day at hour h.
func at(h, m int) time.Time {
	return time.Date(2030, 5, 1, h, m, 0, 0, time.UTC)
}

func stamp(t time.Time) string {
	return t.Format(request.TimeLayout)
}

func ptr[T any](v T) *T {
	return &v
}

func (f *fixture) film(title string) *response.FilmResponse {
	f.t.Helper()
	film, err := f.svc.Film.CreateFilm(f.ctx, &request.FilmRequest{
		Title:           title,
		Description:     "test film",
		DurationMinutes: 120,
		ReleaseYear:     2029,
		Genre:           "Drama",
	})
	require.NoError(f.t, err)
	return film
}

func (f *fixture) hall(name string, capacity int) *response.HallResponse {
	f.t.Helper()
	hall, err := f.svc.Hall.CreateHall(f.ctx, &request.HallRequest{Name: name, Capacity: capacity})
	require.NoError(f.t, err)
	return hall
}

func (f *fixture) screening(filmID, hallID string, start, end time.Time, seats *int) *response.ScreeningResponse {
	f.t.Helper()
	screening, err := f.svc.Screening.CreateScreening(f.ctx, &request.ScreeningRequest{
		FilmID:         filmID,
		HallID:         hallID,
		StartTime:      stamp(start),
		EndTime:        stamp(end),
		Price:          12.50,
		AvailableSeats: seats,
	})
	require.NoError(f.t, err)
	return screening
}

// show creates a film, a hall and one evening screening.
func (f *fixture) show(capacity int, seats *int) *response.ScreeningResponse {
	f.t.Helper()
	film := f.film("Heat")
	hall := f.hall("Hall 1", capacity)
	return f.screening(film.ID, hall.ID, at(18, 0), at(20, 0), seats)
}

func (f *fixture) book(screeningID string, seats int) (*response.BookingResponse, error) {
	return f.svc.Booking.CreateBooking(f.ctx, &request.BookingRequest{
		ScreeningID:   screeningID,
		CustomerName:  "Ann Example",
		CustomerEmail: "ann@example.com",
		CustomerPhone: "+10000000",
		Seats:         seats,
	})
}

func (f *fixture) seatsLeft(screeningID string) int {
	f.t.Helper()
	screening, err := f.svc.Screening.GetScreening(f.ctx, screeningID)
	require.NoError(f.t, err)
	return screening.AvailableSeats
}

// mapCache is an in-process cache.Cache with the same versioning contract
// as the redis implementation.
type mapCache struct {
	mu            sync.Mutex
	version       int64
	entries       map[string]any
	invalidations int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]any)}
}

func (c *mapCache) Version(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version, nil
}

func (c *mapCache) Get(_ context.Context, version int64, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.version {
		return false, nil
	}
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	stored := v.([]response.ScreeningResponse)
	*dst.(*[]response.ScreeningResponse) = append([]response.ScreeningResponse(nil), stored...)
	return true, nil
}

func (c *mapCache) Set(_ context.Context, version int64, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.version {
		return nil
	}
	c.entries[key] = append([]response.ScreeningResponse(nil), value.([]response.ScreeningResponse)...)
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.entries = make(map[string]any)
	c.invalidations++
	return nil
}
