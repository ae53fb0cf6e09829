package response

import (
	"time"

	"cinema-ledger/internal/data/entity"
)

type ScreeningResponse struct {
	ID             string    `json:"id"`
	FilmID         string    `json:"film_id"`
	FilmTitle      string    `json:"film_title"`
	HallID         string    `json:"hall_id"`
	HallName       string    `json:"hall_name"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Price          float64   `json:"price"`
	AvailableSeats int       `json:"available_seats"`
	IsAvailable    bool      `json:"is_available"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ScreeningToResponse builds the view. film and hall may be nil when they
// could not be loaded; the names are then left empty.
func ScreeningToResponse(screening *entity.Screening, film *entity.Film, hall *entity.Hall, now time.Time) ScreeningResponse {
	resp := ScreeningResponse{
		ID:             screening.ID.String(),
		FilmID:         screening.FilmID.String(),
		HallID:         screening.HallID.String(),
		StartTime:      screening.StartTime,
		EndTime:        screening.EndTime,
		Price:          screening.Price,
		AvailableSeats: screening.AvailableSeats,
		IsAvailable:    screening.IsAvailable(now),
		CreatedAt:      screening.CreatedAt,
		UpdatedAt:      screening.UpdatedAt,
	}
	if film != nil {
		resp.FilmTitle = film.Title
	}
	if hall != nil {
		resp.HallName = hall.Name
	}
	return resp
}
