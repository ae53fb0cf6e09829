package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

const defaultReferenceAttempts = 10

type BookingService interface {
	// CreateBooking reserves seats and records the booking in one transaction.
	CreateBooking(ctx context.Context, req *request.BookingRequest) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	GetBookingByReference(ctx context.Context, reference string) (*response.BookingResponse, error)
	ListBookings(ctx context.Context, req *request.BookingListRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	UpdateBooking(ctx context.Context, bookingID string, req *request.BookingUpdateRequest) (*response.BookingResponse, error)
	// CancelBooking returns the booking's seats to its screening.
	CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
}

type bookingService struct {
	repo              *repository.Repository
	listings          cache.Cache
	clock             utils.Clock
	location          *time.Location
	referenceAttempts int
	newReference      func() string
	log               *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	listings cache.Cache,
	clock utils.Clock,
	config *utils.Config,
	log *zap.Logger,
) BookingService {
	return newBookingService(repo, listings, clock, config, log)
}

func newBookingService(
	repo *repository.Repository,
	listings cache.Cache,
	clock utils.Clock,
	config *utils.Config,
	log *zap.Logger,
) *bookingService {
	s := &bookingService{
		repo:              repo,
		listings:          listings,
		clock:             clock,
		location:          time.UTC,
		referenceAttempts: defaultReferenceAttempts,
		newReference:      utils.GenerateBookingReference,
		log:               log.With(zap.String("service", "booking")),
	}
	if config != nil {
		s.location = config.App.Location()
		if config.Booking.ReferenceAttempts > 0 {
			s.referenceAttempts = config.Booking.ReferenceAttempts
		}
	}
	return s
}

func reject(reason string) {
	metrics.BookingRejections.WithLabelValues(reason).Inc()
}

func (s *bookingService) CreateBooking(ctx context.Context, req *request.BookingRequest) (*response.BookingResponse, error) {
	if req.Seats <= 0 {
		reject("invalid_seat_count")
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSeatCount, req.Seats)
	}
	if err := validate(req); err != nil {
		s.log.Warn("Create booking validation failed", zap.Error(err))
		return nil, err
	}

	screeningID, err := parseID("screening_id", req.ScreeningID)
	if err != nil {
		return nil, err
	}

	status := entity.BookingStatusPending
	if req.Status != nil && *req.Status != "" {
		status = entity.BookingStatus(*req.Status)
	}

	var (
		booking   *entity.Booking
		screening *entity.Screening
		film      *entity.Film
	)
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		screening, err = s.repo.Screening.FindByIDForUpdate(ctx, screeningID)
		if err != nil {
			return err
		}
		if screening == nil {
			return notFound("screening", req.ScreeningID)
		}

		now := s.clock.Now()
		if !screening.IsBookable(req.Seats, now) {
			if !screening.StartTime.After(now) {
				return ErrScreeningAlreadyStarted
			}
			return &InsufficientSeatsError{Requested: req.Seats, Available: screening.AvailableSeats}
		}

		booking = &entity.Booking{
			ID:            uuid.New(),
			ScreeningID:   screening.ID,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
			Seats:         req.Seats,
			TotalPrice:    utils.RoundCents(float64(req.Seats) * screening.Price),
			Status:        status,
			BookingDate:   now,
			UpdatedAt:     now,
		}

		_, err = assignReference(s.referenceAttempts, s.newReference, func(reference string) error {
			booking.BookingReference = reference
			return s.repo.Booking.Create(ctx, booking)
		})
		if err != nil {
			return err
		}

		reserved, err := s.repo.Screening.ReserveSeats(ctx, screening.ID, req.Seats)
		if err != nil {
			return err
		}
		if !reserved {
			return &InsufficientSeatsError{Requested: req.Seats, Available: screening.AvailableSeats}
		}
		screening.AvailableSeats -= req.Seats

		film, err = s.repo.Film.FindByID(ctx, screening.FilmID)
		return err
	})
	if err != nil {
		s.logRejection(err, req)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.BookingsCreated.Inc()
	metrics.SeatsReserved.Add(float64(booking.Seats))
	invalidateListings(ctx, s.listings, s.log)

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_reference", booking.BookingReference),
		zap.String("screening_id", req.ScreeningID),
		zap.Int("seats", booking.Seats),
		zap.Float64("total_price", booking.TotalPrice),
	)

	resp := response.BookingToResponse(booking, screening, film, s.location)
	return &resp, nil
}

func (s *bookingService) logRejection(err error, req *request.BookingRequest) {
	var insufficient *InsufficientSeatsError
	switch {
	case errors.As(err, &insufficient):
		reject("insufficient_seats")
		s.log.Info("Booking rejected, not enough seats",
			zap.String("screening_id", req.ScreeningID),
			zap.Int("requested", insufficient.Requested),
			zap.Int("available", insufficient.Available),
		)
	case errors.Is(err, ErrScreeningAlreadyStarted):
		reject("already_started")
	case errors.Is(err, ErrNotFound):
		reject("not_found")
	case errors.Is(err, ErrReferenceGenerationExhausted):
		reject("reference_exhausted")
		s.log.Error("Booking reference space exhausted", zap.Error(err))
	case errors.Is(err, ErrContention):
		reject("contention")
		s.log.Warn("Booking gave up under contention", zap.String("screening_id", req.ScreeningID))
	default:
		s.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("screening_id", req.ScreeningID),
		)
	}
}

// details loads the screening and film a booking view needs.
func (s *bookingService) details(ctx context.Context, booking *entity.Booking) response.BookingResponse {
	return s.view(ctx, []*entity.Booking{booking})[0]
}

// view builds booking responses, looking up each screening and film once.
func (s *bookingService) view(ctx context.Context, bookings []*entity.Booking) []response.BookingResponse {
	screenings := make(map[uuid.UUID]*entity.Screening)
	films := make(map[uuid.UUID]*entity.Film)

	views := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		screening, ok := screenings[booking.ScreeningID]
		if !ok {
			var err error
			screening, err = s.repo.Screening.FindByID(ctx, booking.ScreeningID)
			if err != nil {
				s.log.Warn("Failed to get screening for booking",
					zap.Error(err),
					zap.String("booking_id", booking.ID.String()),
				)
			}
			screenings[booking.ScreeningID] = screening
		}

		var film *entity.Film
		if screening != nil {
			film, ok = films[screening.FilmID]
			if !ok {
				var err error
				film, err = s.repo.Film.FindByID(ctx, screening.FilmID)
				if err != nil {
					s.log.Warn("Failed to get film for booking",
						zap.Error(err),
						zap.String("booking_id", booking.ID.String()),
					)
				}
				films[screening.FilmID] = film
			}
		}

		views[i] = response.BookingToResponse(booking, screening, film, s.location)
	}
	return views
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := parseID("id", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking by id: %w", err)
	}
	if booking == nil {
		return nil, notFound("booking", bookingID)
	}

	resp := s.details(ctx, booking)
	return &resp, nil
}

func (s *bookingService) GetBookingByReference(ctx context.Context, reference string) (*response.BookingResponse, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	if !utils.IsBookingReference(reference) {
		return nil, notFound("booking reference", reference)
	}

	booking, err := s.repo.Booking.FindByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("get booking by reference: %w", err)
	}
	if booking == nil {
		return nil, notFound("booking reference", reference)
	}

	resp := s.details(ctx, booking)
	return &resp, nil
}

func (s *bookingService) ListBookings(ctx context.Context, req *request.BookingListRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	filter := repository.BookingFilter{
		Limit:  req.Limit(),
		Offset: req.Offset(),
	}
	if req.ScreeningID != nil && *req.ScreeningID != "" {
		id, err := parseID("screening_id", *req.ScreeningID)
		if err != nil {
			return nil, err
		}
		filter.ScreeningID = &id
	}
	if req.Status != nil && *req.Status != "" {
		status := entity.BookingStatus(*req.Status)
		filter.Status = &status
	}

	bookings, err := s.repo.Booking.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get bookings: %w", err)
	}

	total, err := s.repo.Booking.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	return response.NewPaginatedResponse(s.view(ctx, bookings), req.CurrentPage(), filter.Limit, total), nil
}

// cancelLocked refunds the booking's seats and marks it cancelled. The caller
// holds the booking row lock inside a transaction.
func (s *bookingService) cancelLocked(ctx context.Context, booking *entity.Booking) (*entity.Screening, error) {
	screening, err := s.repo.Screening.FindByIDForUpdate(ctx, booking.ScreeningID)
	if err != nil {
		return nil, err
	}
	if screening == nil {
		return nil, notFound("screening", booking.ScreeningID.String())
	}

	if err := s.repo.Screening.ReleaseSeats(ctx, screening.ID, booking.Seats); err != nil {
		return nil, err
	}
	screening.AvailableSeats += booking.Seats

	booking.Status = entity.BookingStatusCancelled
	booking.UpdatedAt = s.clock.Now()
	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		return nil, err
	}
	return screening, nil
}

func (s *bookingService) lockBooking(ctx context.Context, bookingID string, id uuid.UUID) (*entity.Booking, error) {
	booking, err := s.repo.Booking.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, notFound("booking", bookingID)
	}
	if booking.IsCancelled() {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrAlreadyCancelled)
	}
	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := parseID("id", bookingID)
	if err != nil {
		return nil, err
	}

	var (
		booking   *entity.Booking
		screening *entity.Screening
		film      *entity.Film
	)
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		booking, err = s.lockBooking(ctx, bookingID, id)
		if err != nil {
			return err
		}
		screening, err = s.cancelLocked(ctx, booking)
		if err != nil {
			return err
		}
		film, err = s.repo.Film.FindByID(ctx, screening.FilmID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	s.cancelled(ctx, booking)

	resp := response.BookingToResponse(booking, screening, film, s.location)
	return &resp, nil
}

func (s *bookingService) cancelled(ctx context.Context, booking *entity.Booking) {
	metrics.BookingsCancelled.Inc()
	metrics.SeatsReleased.Add(float64(booking.Seats))
	invalidateListings(ctx, s.listings, s.log)

	s.log.Info("Booking cancelled",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_reference", booking.BookingReference),
		zap.Int("seats", booking.Seats),
	)
}

func (s *bookingService) UpdateBooking(ctx context.Context, bookingID string, req *request.BookingUpdateRequest) (*response.BookingResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Update booking validation failed", zap.Error(err))
		return nil, err
	}

	id, err := parseID("id", bookingID)
	if err != nil {
		return nil, err
	}

	var (
		booking      *entity.Booking
		screening    *entity.Screening
		film         *entity.Film
		wasCancelled bool
	)
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		booking, err = s.lockBooking(ctx, bookingID, id)
		if err != nil {
			return err
		}

		if req.CustomerName != nil {
			booking.CustomerName = *req.CustomerName
		}
		if req.CustomerEmail != nil {
			booking.CustomerEmail = *req.CustomerEmail
		}
		if req.CustomerPhone != nil {
			booking.CustomerPhone = *req.CustomerPhone
		}

		target := booking.Status
		if req.Status != nil {
			target = entity.BookingStatus(*req.Status)
		}

		switch {
		case target == entity.BookingStatusCancelled:
			screening, err = s.cancelLocked(ctx, booking)
			if err != nil {
				return err
			}
			wasCancelled = true
		case booking.Status == entity.BookingStatusConfirmed && target == entity.BookingStatusPending:
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, booking.Status, target)
		default:
			booking.Status = target
			booking.UpdatedAt = s.clock.Now()
			if err := s.repo.Booking.Update(ctx, booking); err != nil {
				return err
			}
			screening, err = s.repo.Screening.FindByID(ctx, booking.ScreeningID)
			if err != nil {
				return err
			}
		}

		if screening != nil {
			film, err = s.repo.Film.FindByID(ctx, screening.FilmID)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}

	if wasCancelled {
		s.cancelled(ctx, booking)
	} else {
		s.log.Info("Booking updated",
			zap.String("booking_id", bookingID),
			zap.String("status", string(booking.Status)),
		)
	}

	resp := response.BookingToResponse(booking, screening, film, s.location)
	return &resp, nil
}
