package repository

import (
	"context"
	"errors"

	"cinema-ledger/pkg/database"

	"go.uber.org/zap"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateReference = errors.New("booking reference already taken")
	ErrOverlap            = errors.New("hall already has a screening in that interval")
	ErrReferenced         = errors.New("row is still referenced")
)

// Transactor runs fn as one atomic unit. Repository calls made with the ctx
// handed to fn join that unit; returning an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Repository struct {
	Tx        Transactor
	Health    HealthChecker
	Film      FilmRepository
	Hall      HallRepository
	Screening ScreeningRepository
	Booking   BookingRepository
}

func NewRepository(db database.PgxIface, txConfig database.TxConfig, log *zap.Logger) *Repository {
	return &Repository{
		Tx:        database.NewTxRunner(db, txConfig, log),
		Health:    db,
		Film:      NewFilmRepository(db, log),
		Hall:      NewHallRepository(db, log),
		Screening: NewScreeningRepository(db, log),
		Booking:   NewBookingRepository(db, log),
	}
}
