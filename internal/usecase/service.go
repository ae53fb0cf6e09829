package usecase

import (
	"context"
	"time"

	"cinema-ledger/internal/data/repository"
	"cinema-ledger/pkg/cache"
	"cinema-ledger/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	Film      FilmService
	Hall      HallService
	Screening ScreeningService
	Booking   BookingService
}

func NewService(
	repo *repository.Repository,
	listings cache.Cache,
	clock utils.Clock,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	if listings == nil {
		listings = cache.NewNoop()
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}

	return &Service{
		Film:      NewFilmService(repo, listings, clock, log),
		Hall:      NewHallService(repo, listings, clock, log),
		Screening: NewScreeningService(repo, listings, clock, config, log),
		Booking:   NewBookingService(repo, listings, clock, config, log),
	}
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidField(field, "Must be a valid UUID")
	}
	return id, nil
}

// invalidateListings drops cached listings after a committed write. A failure
// only leaves entries to expire by TTL.
func invalidateListings(ctx context.Context, listings cache.Cache, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()

	if err := listings.Invalidate(ctx); err != nil {
		log.Warn("Failed to invalidate listing cache", zap.Error(err))
	}
}
