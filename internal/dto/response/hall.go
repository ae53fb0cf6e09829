package response

import (
	"time"

	"cinema-ledger/internal/data/entity"
)

type HallResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func HallToResponse(hall *entity.Hall) HallResponse {
	return HallResponse{
		ID:          hall.ID.String(),
		Name:        hall.Name,
		Capacity:    hall.Capacity,
		Description: hall.Description,
		CreatedAt:   hall.CreatedAt,
		UpdatedAt:   hall.UpdatedAt,
	}
}
