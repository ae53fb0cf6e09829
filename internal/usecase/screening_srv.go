package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-ledger/internal/data/entity"
	"cinema-ledger/internal/data/repository"
	"cinema-ledger/internal/dto/request"
	"cinema-ledger/internal/dto/response"
	"cinema-ledger/pkg/cache"
	"cinema-ledger/pkg/metrics"
	"cinema-ledger/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultUpcomingLimit = 10
	maxUpcomingLimit     = 100
)

type ScreeningService interface {
	CreateScreening(ctx context.Context, req *request.ScreeningRequest) (*response.ScreeningResponse, error)
	GetScreening(ctx context.Context, screeningID string) (*response.ScreeningResponse, error)
	// ListScreenings returns screenings that have not started yet.
	ListScreenings(ctx context.Context, req *request.ScreeningListRequest) (*response.PaginatedResponse[response.ScreeningResponse], error)
	ListUpcoming(ctx context.Context, req *request.UpcomingScreeningsRequest) ([]response.ScreeningResponse, error)
	UpdateScreening(ctx context.Context, screeningID string, req *request.ScreeningUpdateRequest) (*response.ScreeningResponse, error)
	DeleteScreening(ctx context.Context, screeningID string) error
}

type screeningService struct {
	repo         *repository.Repository
	listings     cache.Cache
	clock        utils.Clock
	location     *time.Location
	defaultLimit int
	log          *zap.Logger
}

func NewScreeningService(
	repo *repository.Repository,
	listings cache.Cache,
	clock utils.Clock,
	config *utils.Config,
	log *zap.Logger,
) ScreeningService {
	s := &screeningService{
		repo:         repo,
		listings:     listings,
		clock:        clock,
		location:     time.UTC,
		defaultLimit: defaultUpcomingLimit,
		log:          log.With(zap.String("service", "screening")),
	}
	if config != nil {
		s.location = config.App.Location()
		if config.Booking.UpcomingDefaultLimit > 0 {
			s.defaultLimit = min(config.Booking.UpcomingDefaultLimit, maxUpcomingLimit)
		}
	}
	return s
}

func parseTime(field, raw string) (time.Time, error) {
	t, err := time.Parse(request.TimeLayout, raw)
	if err != nil {
		return time.Time{}, invalidField(field, "Must match format "+request.TimeLayout)
	}
	return t, nil
}

// dayRange resolves a YYYY-MM-DD filter to [midnight, next midnight) in loc.
func dayRange(raw string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(request.DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, invalidField("date", "Must match format "+request.DateLayout)
	}
	return day, day.AddDate(0, 0, 1), nil
}

// futureFilter builds the repository filter for screenings starting at or
// after now, optionally narrowed to one film and one calendar day.
func (s *screeningService) futureFilter(now time.Time, filmID, date *string) (repository.ScreeningFilter, error) {
	filter := repository.ScreeningFilter{StartsFrom: &now}

	if filmID != nil && *filmID != "" {
		id, err := parseID("film_id", *filmID)
		if err != nil {
			return filter, err
		}
		filter.FilmID = &id
	}

	if date != nil && *date != "" {
		from, until, err := dayRange(*date, s.location)
		if err != nil {
			return filter, err
		}
		if from.After(now) {
			filter.StartsFrom = &from
		}
		filter.StartsBefore = &until
	}

	return filter, nil
}

// lockHalls row-locks every distinct hall in ascending id order.
func (s *screeningService) lockHalls(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*entity.Hall, error) {
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		seen := false
		for _, o := range ordered {
			if o == id {
				seen = true
				break
			}
		}
		if !seen {
			ordered = append(ordered, id)
		}
	}
	if len(ordered) == 2 && bytes.Compare(ordered[0][:], ordered[1][:]) > 0 {
		ordered[0], ordered[1] = ordered[1], ordered[0]
	}

	halls := make(map[uuid.UUID]*entity.Hall, len(ordered))
	for _, id := range ordered {
		hall, err := s.repo.Hall.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if hall == nil {
			return nil, notFound("hall", id.String())
		}
		halls[id] = hall
	}
	return halls, nil
}

func (s *screeningService) checkOverlap(ctx context.Context, hallID uuid.UUID, start, end time.Time, excludeID uuid.UUID) error {
	clashes, err := s.repo.Screening.FindOverlapping(ctx, hallID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(clashes) > 0 {
		return fmt.Errorf("%w: overlaps screening %s", ErrScheduleConflict, clashes[0].ID.String())
	}
	return nil
}

func conflictFromStore(err error) error {
	if errors.Is(err, repository.ErrOverlap) {
		return fmt.Errorf("%w: %v", ErrScheduleConflict, err)
	}
	return err
}

func (s *screeningService) CreateScreening(ctx context.Context, req *request.ScreeningRequest) (*response.ScreeningResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Create screening validation failed", zap.Error(err))
		return nil, err
	}

	filmID, err := parseID("film_id", req.FilmID)
	if err != nil {
		return nil, err
	}
	hallID, err := parseID("hall_id", req.HallID)
	if err != nil {
		return nil, err
	}
	start, err := parseTime("start_time", req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseTime("end_time", req.EndTime)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, ErrInvalidInterval
	}

	var (
		screening *entity.Screening
		film      *entity.Film
		hall      *entity.Hall
	)
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		halls, err := s.lockHalls(ctx, hallID)
		if err != nil {
			return err
		}
		hall = halls[hallID]

		film, err = s.repo.Film.FindByID(ctx, filmID)
		if err != nil {
			return err
		}
		if film == nil {
			return notFound("film", req.FilmID)
		}

		seats := hall.Capacity
		if req.AvailableSeats != nil && *req.AvailableSeats > 0 {
			if *req.AvailableSeats > hall.Capacity {
				return fmt.Errorf("%w: %d > %d", ErrSeatsExceedCapacity, *req.AvailableSeats, hall.Capacity)
			}
			seats = *req.AvailableSeats
		}

		if err := s.checkOverlap(ctx, hallID, start, end, uuid.Nil); err != nil {
			return err
		}

		now := s.clock.Now()
		screening = &entity.Screening{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			FilmID:         filmID,
			HallID:         hallID,
			StartTime:      start,
			EndTime:        end,
			Price:          utils.RoundCents(req.Price),
			AvailableSeats: seats,
		}
		return conflictFromStore(s.repo.Screening.Create(ctx, screening))
	})
	if err != nil {
		if errors.Is(err, ErrScheduleConflict) {
			metrics.ScheduleConflicts.Inc()
			s.log.Info("Screening rejected, hall busy",
				zap.String("hall_id", req.HallID),
				zap.Time("start_time", start),
				zap.Time("end_time", end),
			)
		}
		return nil, fmt.Errorf("create screening: %w", err)
	}

	invalidateListings(ctx, s.listings, s.log)

	s.log.Info("Screening created",
		zap.String("screening_id", screening.ID.String()),
		zap.String("hall_id", req.HallID),
		zap.Int("available_seats", screening.AvailableSeats),
	)

	resp := response.ScreeningToResponse(screening, film, hall, s.clock.Now())
	return &resp, nil
}

// view loads the film and hall names for each screening, once per id.
func (s *screeningService) view(ctx context.Context, screenings []*entity.Screening, now time.Time) []response.ScreeningResponse {
	films := make(map[uuid.UUID]*entity.Film)
	halls := make(map[uuid.UUID]*entity.Hall)

	views := make([]response.ScreeningResponse, len(screenings))
	for i, screening := range screenings {
		film, ok := films[screening.FilmID]
		if !ok {
			var err error
			film, err = s.repo.Film.FindByID(ctx, screening.FilmID)
			if err != nil {
				s.log.Warn("Failed to get film for screening",
					zap.Error(err),
					zap.String("screening_id", screening.ID.String()),
				)
			}
			films[screening.FilmID] = film
		}

		hall, ok := halls[screening.HallID]
		if !ok {
			var err error
			hall, err = s.repo.Hall.FindByID(ctx, screening.HallID)
			if err != nil {
				s.log.Warn("Failed to get hall for screening",
					zap.Error(err),
					zap.String("screening_id", screening.ID.String()),
				)
			}
			halls[screening.HallID] = hall
		}

		views[i] = response.ScreeningToResponse(screening, film, hall, now)
	}
	return views
}

func (s *screeningService) GetScreening(ctx context.Context, screeningID string) (*response.ScreeningResponse, error) {
	id, err := parseID("id", screeningID)
	if err != nil {
		return nil, err
	}

	screening, err := s.repo.Screening.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get screening by id: %w", err)
	}
	if screening == nil {
		return nil, notFound("screening", screeningID)
	}

	return &s.view(ctx, []*entity.Screening{screening}, s.clock.Now())[0], nil
}

func (s *screeningService) ListScreenings(ctx context.Context, req *request.ScreeningListRequest) (*response.PaginatedResponse[response.ScreeningResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	filter, err := s.futureFilter(now, req.FilmID, req.Date)
	if err != nil {
		return nil, err
	}
	filter.Limit = req.Limit()
	filter.Offset = req.Offset()

	screenings, err := s.repo.Screening.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get screenings: %w", err)
	}

	total, err := s.repo.Screening.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count screenings: %w", err)
	}

	return response.NewPaginatedResponse(s.view(ctx, screenings, now), req.CurrentPage(), filter.Limit, total), nil
}

func (s *screeningService) upcomingLimit(requested int) int {
	switch {
	case requested <= 0:
		return s.defaultLimit
	case requested > maxUpcomingLimit:
		return maxUpcomingLimit
	}
	return requested
}

func (s *screeningService) ListUpcoming(ctx context.Context, req *request.UpcomingScreeningsRequest) ([]response.ScreeningResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	filter, err := s.futureFilter(now, req.FilmID, req.Date)
	if err != nil {
		return nil, err
	}
	limit := s.upcomingLimit(req.Limit)

	key := upcomingKey(req.FilmID, req.Date)
	version, verErr := s.listings.Version(ctx)
	if verErr != nil {
		s.log.Warn("Listing cache unavailable", zap.Error(verErr))
	} else if views, ok := s.cachedUpcoming(ctx, version, key, now, limit); ok {
		return views, nil
	}

	// the cached page always holds the widest window so any limit can be served
	filter.Limit = maxUpcomingLimit
	screenings, err := s.repo.Screening.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get upcoming screenings: %w", err)
	}
	views := s.view(ctx, screenings, now)

	if verErr == nil {
		if err := s.listings.Set(ctx, version, key, views); err != nil {
			s.log.Warn("Failed to cache upcoming screenings", zap.Error(err))
		}
	}

	return views[:min(limit, len(views))], nil
}

func upcomingKey(filmID, date *string) string {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	return "upcoming:film=" + deref(filmID) + ":date=" + deref(date)
}

// cachedUpcoming serves a cached window after dropping entries that started
// since it was stored. A window that shrank below limit is treated as a miss
// when later screenings may exist beyond it.
func (s *screeningService) cachedUpcoming(ctx context.Context, version int64, key string, now time.Time, limit int) ([]response.ScreeningResponse, bool) {
	var cached []response.ScreeningResponse
	hit, err := s.listings.Get(ctx, version, key, &cached)
	if err != nil {
		s.log.Warn("Failed to read listing cache", zap.Error(err))
		return nil, false
	}
	if !hit {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	views := make([]response.ScreeningResponse, 0, len(cached))
	for _, v := range cached {
		if v.StartTime.Before(now) {
			continue
		}
		v.IsAvailable = v.AvailableSeats > 0 && v.StartTime.After(now)
		views = append(views, v)
	}

	if len(views) < limit && len(cached) >= maxUpcomingLimit {
		metrics.CacheLookups.WithLabelValues("stale").Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return views[:min(limit, len(views))], true
}

func (s *screeningService) UpdateScreening(ctx context.Context, screeningID string, req *request.ScreeningUpdateRequest) (*response.ScreeningResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Update screening validation failed", zap.Error(err))
		return nil, err
	}

	id, err := parseID("id", screeningID)
	if err != nil {
		return nil, err
	}

	var (
		newFilmID, newHallID *uuid.UUID
		newStart, newEnd     *time.Time
	)
	if req.FilmID != nil {
		filmID, err := parseID("film_id", *req.FilmID)
		if err != nil {
			return nil, err
		}
		newFilmID = &filmID
	}
	if req.HallID != nil {
		hallID, err := parseID("hall_id", *req.HallID)
		if err != nil {
			return nil, err
		}
		newHallID = &hallID
	}
	if req.StartTime != nil {
		start, err := parseTime("start_time", *req.StartTime)
		if err != nil {
			return nil, err
		}
		newStart = &start
	}
	if req.EndTime != nil {
		end, err := parseTime("end_time", *req.EndTime)
		if err != nil {
			return nil, err
		}
		newEnd = &end
	}

	var (
		screening *entity.Screening
		film      *entity.Film
		hall      *entity.Hall
	)
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		screening, err = s.repo.Screening.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if screening == nil {
			return notFound("screening", screeningID)
		}

		hallID := screening.HallID
		if newHallID != nil {
			hallID = *newHallID
		}
		halls, err := s.lockHalls(ctx, screening.HallID, hallID)
		if err != nil {
			return err
		}
		hall = halls[hallID]

		if newFilmID != nil {
			screening.FilmID = *newFilmID
		}
		film, err = s.repo.Film.FindByID(ctx, screening.FilmID)
		if err != nil {
			return err
		}
		if film == nil {
			return notFound("film", screening.FilmID.String())
		}

		if newStart != nil {
			screening.StartTime = *newStart
		}
		if newEnd != nil {
			screening.EndTime = *newEnd
		}
		if !screening.EndTime.After(screening.StartTime) {
			return ErrInvalidInterval
		}
		if req.Price != nil {
			screening.Price = utils.RoundCents(*req.Price)
		}

		if hallID != screening.HallID {
			bookings, err := s.repo.Booking.CountByScreeningID(ctx, screening.ID)
			if err != nil {
				return err
			}
			if bookings > 0 {
				return fmt.Errorf("screening %s has %d bookings, hall cannot change: %w", screeningID, bookings, ErrInUse)
			}
			screening.HallID = hallID
			screening.AvailableSeats = hall.Capacity
		}

		if err := s.checkOverlap(ctx, screening.HallID, screening.StartTime, screening.EndTime, screening.ID); err != nil {
			return err
		}

		screening.UpdatedAt = s.clock.Now()
		return conflictFromStore(s.repo.Screening.Update(ctx, screening))
	})
	if err != nil {
		if errors.Is(err, ErrScheduleConflict) {
			metrics.ScheduleConflicts.Inc()
		}
		return nil, fmt.Errorf("update screening: %w", err)
	}

	invalidateListings(ctx, s.listings, s.log)

	s.log.Info("Screening updated", zap.String("screening_id", screeningID))

	resp := response.ScreeningToResponse(screening, film, hall, s.clock.Now())
	return &resp, nil
}

func (s *screeningService) DeleteScreening(ctx context.Context, screeningID string) error {
	id, err := parseID("id", screeningID)
	if err != nil {
		return err
	}

	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		screening, err := s.repo.Screening.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if screening == nil {
			return notFound("screening", screeningID)
		}

		bookings, err := s.repo.Booking.CountByScreeningID(ctx, id)
		if err != nil {
			return err
		}
		if bookings > 0 {
			return fmt.Errorf("screening %s has %d bookings: %w", screeningID, bookings, ErrInUse)
		}

		if err := s.repo.Screening.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrReferenced) {
				return fmt.Errorf("screening %s: %w", screeningID, ErrInUse)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete screening: %w", err)
	}

	invalidateListings(ctx, s.listings, s.log)

	s.log.Info("Screening deleted", zap.String("screening_id", screeningID))
	return nil
}
