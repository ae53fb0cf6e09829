package request

import "time"

// TimeLayout is the wire format of screening times.
const TimeLayout = time.RFC3339

// DateLayout is the wire format of calendar-day filters.
const DateLayout = "2006-01-02"

type ScreeningRequest struct {
	FilmID    string  `json:"film_id" validate:"required,uuid"`
	HallID    string  `json:"hall_id" validate:"required,uuid"`
	StartTime string  `json:"start_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime   string  `json:"end_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Price     float64 `json:"price" validate:"required,gt=0,lt=1000000,cents"`
	// AvailableSeats defaults to the hall capacity when omitted or zero.
	AvailableSeats *int `json:"available_seats,omitempty" validate:"omitempty,gte=0"`
}

type ScreeningUpdateRequest struct {
	FilmID    *string  `json:"film_id,omitempty" validate:"omitempty,uuid"`
	HallID    *string  `json:"hall_id,omitempty" validate:"omitempty,uuid"`
	StartTime *string  `json:"start_time,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime   *string  `json:"end_time,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Price     *float64 `json:"price,omitempty" validate:"omitempty,gt=0,lt=1000000,cents"`
}

type ScreeningListRequest struct {
	PaginatedRequest
	FilmID *string `json:"film_id,omitempty" validate:"omitempty,uuid"`
	Date   *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type UpcomingScreeningsRequest struct {
	FilmID *string `json:"film_id,omitempty" validate:"omitempty,uuid"`
	Date   *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	// Limit defaults to the configured value and is capped at 100.
	Limit int `json:"limit" validate:"gte=0"`
}
