package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"cinema-ledger/internal/data/entity"
	"cinema-ledger/internal/data/repository"
	"cinema-ledger/internal/dto/request"
	"cinema-ledger/internal/dto/response"
	"cinema-ledger/pkg/cache"
	"cinema-ledger/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// releaseYearHorizon is how many years ahead a film may be announced.
const releaseYearHorizon = 10

type FilmService interface {
	ListFilms(ctx context.Context, req *request.FilmListRequest) (*response.PaginatedResponse[response.FilmResponse], error)
	GetFilm(ctx context.Context, filmID string) (*response.FilmResponse, error)
	CreateFilm(ctx context.Context, req *request.FilmRequest) (*response.FilmResponse, error)
	UpdateFilm(ctx context.Context, filmID string, req *request.FilmUpdateRequest) (*response.FilmResponse, error)
	DeleteFilm(ctx context.Context, filmID string) error
}

type filmService struct {
	repo     *repository.Repository
	listings cache.Cache
	clock    utils.Clock
	log      *zap.Logger
}

func NewFilmService(repo *repository.Repository, listings cache.Cache, clock utils.Clock, log *zap.Logger) FilmService {
	return &filmService{
		repo:     repo,
		listings: listings,
		clock:    clock,
		log:      log.With(zap.String("service", "film")),
	}
}

func (s *filmService) checkReleaseYear(year int) error {
	if latest := s.clock.Now().Year() + releaseYearHorizon; year > latest {
		return invalidField("release_year", "Must be at most "+strconv.Itoa(latest))
	}
	return nil
}

func (s *filmService) ListFilms(ctx context.Context, req *request.FilmListRequest) (*response.PaginatedResponse[response.FilmResponse], error) {
	limit := req.Limit()
	offset := req.Offset()

	films, err := s.repo.Film.FindAll(ctx, limit, offset, req.Genre)
	if err != nil {
		return nil, fmt.Errorf("get films: %w", err)
	}

	total, err := s.repo.Film.CountAll(ctx, req.Genre)
	if err != nil {
		return nil, fmt.Errorf("count films: %w", err)
	}

	filmResponses := make([]response.FilmResponse, len(films))
	for i, film := range films {
		filmResponses[i] = response.FilmToResponse(film)
	}

	s.log.Debug("Films retrieved",
		zap.Int("count", len(films)),
		zap.Int64("total", total),
		zap.Stringp("genre", req.Genre),
	)

	return response.NewPaginatedResponse(filmResponses, req.CurrentPage(), limit, total), nil
}

func (s *filmService) findFilm(ctx context.Context, filmID string) (*entity.Film, error) {
	id, err := parseID("id", filmID)
	if err != nil {
		return nil, err
	}

	film, err := s.repo.Film.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get film by id: %w", err)
	}
	if film == nil {
		return nil, notFound("film", filmID)
	}
	return film, nil
}

func (s *filmService) GetFilm(ctx context.Context, filmID string) (*response.FilmResponse, error) {
	film, err := s.findFilm(ctx, filmID)
	if err != nil {
		return nil, err
	}

	resp := response.FilmToResponse(film)
	return &resp, nil
}

func (s *filmService) CreateFilm(ctx context.Context, req *request.FilmRequest) (*response.FilmResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Create film validation failed", zap.Error(err))
		return nil, err
	}
	if err := s.checkReleaseYear(req.ReleaseYear); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	film := &entity.Film{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		ReleaseYear:     req.ReleaseYear,
		Genre:           req.Genre,
	}

	if err := s.repo.Film.Create(ctx, film); err != nil {
		return nil, fmt.Errorf("create film: %w", err)
	}

	s.log.Info("Film created",
		zap.String("film_id", film.ID.String()),
		zap.String("title", film.Title),
	)

	resp := response.FilmToResponse(film)
	return &resp, nil
}

func (s *filmService) UpdateFilm(ctx context.Context, filmID string, req *request.FilmUpdateRequest) (*response.FilmResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Update film validation failed", zap.Error(err))
		return nil, err
	}
	if req.ReleaseYear != nil {
		if err := s.checkReleaseYear(*req.ReleaseYear); err != nil {
			return nil, err
		}
	}

	film, err := s.findFilm(ctx, filmID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		film.Title = *req.Title
	}
	if req.Description != nil {
		film.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		film.DurationMinutes = *req.DurationMinutes
	}
	if req.ReleaseYear != nil {
		film.ReleaseYear = *req.ReleaseYear
	}
	if req.Genre != nil {
		film.Genre = *req.Genre
	}
	film.UpdatedAt = s.clock.Now()

	if err := s.repo.Film.Update(ctx, film); err != nil {
		return nil, fmt.Errorf("update film: %w", err)
	}

	// screening views carry the title
	invalidateListings(ctx, s.listings, s.log)

	s.log.Info("Film updated", zap.String("film_id", filmID))

	resp := response.FilmToResponse(film)
	return &resp, nil
}

func (s *filmService) DeleteFilm(ctx context.Context, filmID string) error {
	id, err := parseID("id", filmID)
	if err != nil {
		return err
	}

	screenings, err := s.repo.Screening.CountByFilmID(ctx, id)
	if err != nil {
		return fmt.Errorf("count screenings of film: %w", err)
	}
	if screenings > 0 {
		return fmt.Errorf("film %s has %d screenings: %w", filmID, screenings, ErrInUse)
	}

	if err := s.repo.Film.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return fmt.Errorf("film %s: %w", filmID, ErrInUse)
		}
		return fmt.Errorf("delete film: %w", err)
	}

	s.log.Info("Film deleted", zap.String("film_id", filmID))
	return nil
}
