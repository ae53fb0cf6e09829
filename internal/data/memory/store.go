// Package memory is an in-process implementation of the repository
// interfaces. Transactions are serialised by one mutex and roll back by
// restoring a snapshot, which gives the same all-or-nothing behaviour as the
// PostgreSQL store without a server.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"cinema-ledger/internal/data/entity"
	"cinema-ledger/internal/data/repository"
	"cinema-ledger/pkg/utils"

	"github.com/google/uuid"
)

type txKey struct{}

type tables struct {
	films      map[uuid.UUID]entity.Film
	halls      map[uuid.UUID]entity.Hall
	screenings map[uuid.UUID]entity.Screening
	bookings   map[uuid.UUID]entity.Booking
	references map[string]uuid.UUID
}

func (t tables) clone() tables {
	return tables{
		films:      maps.Clone(t.films),
		halls:      maps.Clone(t.halls),
		screenings: maps.Clone(t.screenings),
		bookings:   maps.Clone(t.bookings),
		references: maps.Clone(t.references),
	}
}

type Store struct {
	mu    sync.Mutex
	data  tables
	clock utils.Clock
}

func NewStore(clock utils.Clock) *Store {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Store{
		clock: clock,
		data: tables{
			films:      make(map[uuid.UUID]entity.Film),
			halls:      make(map[uuid.UUID]entity.Hall),
			screenings: make(map[uuid.UUID]entity.Screening),
			bookings:   make(map[uuid.UUID]entity.Booking),
			references: make(map[string]uuid.UUID),
		},
	}
}

// NewRepository wires a fresh store behind the repository interfaces.
func NewRepository(clock utils.Clock) *repository.Repository {
	return NewStore(clock).Repository()
}

func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Tx:        s,
		Health:    s,
		Film:      &filmRepository{s},
		Hall:      &hallRepository{s},
		Screening: &screeningRepository{s},
		Booking:   &bookingRepository{s},
	}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// WithinTx holds the store lock for the whole of fn. Nested calls join.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// restored on error and on panic
	snapshot := s.data.clone()
	committed := false
	defer func() {
		if !committed {
			s.data = snapshot
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

// access runs fn against the tables, taking the lock unless ctx already owns it.
func (s *Store) access(ctx context.Context, fn func(t *tables) error) error {
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(&s.data)
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) now() time.Time {
	return s.clock.Now()
}

// window applies offset and limit (0 = unlimited) to an ordered slice.
func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
