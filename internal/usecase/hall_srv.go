package usecase

import (
	"context"
	"errors"
	"fmt"

	"cinema-ledger/internal/data/entity"
	"cinema-ledger/internal/data/repository"
	"cinema-ledger/internal/dto/request"
	"cinema-ledger/internal/dto/response"
	"cinema-ledger/pkg/cache"
	"cinema-ledger/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HallService interface {
	ListHalls(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.HallResponse], error)
	GetHall(ctx context.Context, hallID string) (*response.HallResponse, error)
	CreateHall(ctx context.Context, req *request.HallRequest) (*response.HallResponse, error)
	// UpdateHall never touches seat counts of existing screenings.
	UpdateHall(ctx context.Context, hallID string, req *request.HallUpdateRequest) (*response.HallResponse, error)
	DeleteHall(ctx context.Context, hallID string) error
}

type hallService struct {
	repo     *repository.Repository
	listings cache.Cache
	clock    utils.Clock
	log      *zap.Logger
}

func NewHallService(repo *repository.Repository, listings cache.Cache, clock utils.Clock, log *zap.Logger) HallService {
	return &hallService{
		repo:     repo,
		listings: listings,
		clock:    clock,
		log:      log.With(zap.String("service", "hall")),
	}
}

func (s *hallService) ListHalls(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.HallResponse], error) {
	limit := req.Limit()

	halls, err := s.repo.Hall.FindAll(ctx, limit, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get halls: %w", err)
	}

	total, err := s.repo.Hall.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count halls: %w", err)
	}

	hallResponses := make([]response.HallResponse, len(halls))
	for i, hall := range halls {
		hallResponses[i] = response.HallToResponse(hall)
	}

	return response.NewPaginatedResponse(hallResponses, req.CurrentPage(), limit, total), nil
}

func (s *hallService) findHall(ctx context.Context, hallID string) (*entity.Hall, error) {
	id, err := parseID("id", hallID)
	if err != nil {
		return nil, err
	}

	hall, err := s.repo.Hall.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get hall by id: %w", err)
	}
	if hall == nil {
		return nil, notFound("hall", hallID)
	}
	return hall, nil
}

func (s *hallService) GetHall(ctx context.Context, hallID string) (*response.HallResponse, error) {
	hall, err := s.findHall(ctx, hallID)
	if err != nil {
		return nil, err
	}

	resp := response.HallToResponse(hall)
	return &resp, nil
}

func (s *hallService) CreateHall(ctx context.Context, req *request.HallRequest) (*response.HallResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Create hall validation failed", zap.Error(err))
		return nil, err
	}

	now := s.clock.Now()
	hall := &entity.Hall{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:        req.Name,
		Capacity:    req.Capacity,
		Description: req.Description,
	}

	if err := s.repo.Hall.Create(ctx, hall); err != nil {
		return nil, fmt.Errorf("create hall: %w", err)
	}

	s.log.Info("Hall created",
		zap.String("hall_id", hall.ID.String()),
		zap.String("name", hall.Name),
		zap.Int("capacity", hall.Capacity),
	)

	resp := response.HallToResponse(hall)
	return &resp, nil
}

func (s *hallService) UpdateHall(ctx context.Context, hallID string, req *request.HallUpdateRequest) (*response.HallResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Update hall validation failed", zap.Error(err))
		return nil, err
	}

	id, err := parseID("id", hallID)
	if err != nil {
		return nil, err
	}

	var hall *entity.Hall
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		// serialised with screening writes on the hall row
		hall, err = s.repo.Hall.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if hall == nil {
			return notFound("hall", hallID)
		}

		if req.Name != nil {
			hall.Name = *req.Name
		}
		if req.Capacity != nil {
			hall.Capacity = *req.Capacity
		}
		if req.Description != nil {
			hall.Description = *req.Description
		}
		hall.UpdatedAt = s.clock.Now()

		return s.repo.Hall.Update(ctx, hall)
	})
	if err != nil {
		return nil, fmt.Errorf("update hall: %w", err)
	}

	invalidateListings(ctx, s.listings, s.log)

	s.log.Info("Hall updated", zap.String("hall_id", hallID))

	resp := response.HallToResponse(hall)
	return &resp, nil
}

func (s *hallService) DeleteHall(ctx context.Context, hallID string) error {
	id, err := parseID("id", hallID)
	if err != nil {
		return err
	}

	screenings, err := s.repo.Screening.CountByHallID(ctx, id)
	if err != nil {
		return fmt.Errorf("count screenings in hall: %w", err)
	}
	if screenings > 0 {
		return fmt.Errorf("hall %s has %d screenings: %w", hallID, screenings, ErrInUse)
	}

	if err := s.repo.Hall.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return fmt.Errorf("hall %s: %w", hallID, ErrInUse)
		}
		return fmt.Errorf("delete hall: %w", err)
	}

	s.log.Info("Hall deleted", zap.String("hall_id", hallID))
	return nil
}
