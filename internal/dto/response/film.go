package response

import (
	"time"

	"cinema-ledger/internal/data/entity"
)

type FilmResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	ReleaseYear     int       `json:"release_year"`
	Genre           string    `json:"genre"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func FilmToResponse(film *entity.Film) FilmResponse {
	return FilmResponse{
		ID:              film.ID.String(),
		Title:           film.Title,
		Description:     film.Description,
		DurationMinutes: film.DurationMinutes,
		ReleaseYear:     film.ReleaseYear,
		Genre:           film.Genre,
		CreatedAt:       film.CreatedAt,
		UpdatedAt:       film.UpdatedAt,
	}
}
