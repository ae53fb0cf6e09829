package response

import (
	"fmt"
	"time"

	"cinema-ledger/internal/data/entity"
)

// ScreeningInfoLayout renders the screening start in booking views.
const ScreeningInfoLayout = "02.01.2006 15:04"

type BookingResponse struct {
	ID               string               `json:"id"`
	ScreeningID      string               `json:"screening_id"`
	ScreeningInfo    string               `json:"screening_info"`
	FilmTitle        string               `json:"film_title"`
	CustomerName     string               `json:"customer_name"`
	CustomerEmail    string               `json:"customer_email"`
	CustomerPhone    string               `json:"customer_phone"`
	Seats            int                  `json:"seats"`
	TotalPrice       float64              `json:"total_price"`
	Status           entity.BookingStatus `json:"status"`
	BookingReference string               `json:"booking_reference"`
	BookingDate      time.Time            `json:"booking_date"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// Helper converters
func BookingToResponse(booking *entity.Booking, screening *entity.Screening, film *entity.Film, loc *time.Location) BookingResponse {
	resp := BookingResponse{
		ID:               booking.ID.String(),
		ScreeningID:      booking.ScreeningID.String(),
		CustomerName:     booking.CustomerName,
		CustomerEmail:    booking.CustomerEmail,
		CustomerPhone:    booking.CustomerPhone,
		Seats:            booking.Seats,
		TotalPrice:       booking.TotalPrice,
		Status:           booking.Status,
		BookingReference: booking.BookingReference,
		BookingDate:      booking.BookingDate,
		UpdatedAt:        booking.UpdatedAt,
	}

	if film != nil {
		resp.FilmTitle = film.Title
	}
	if screening != nil {
		if loc == nil {
			loc = time.UTC
		}
		resp.ScreeningInfo = fmt.Sprintf("%s - %s", resp.FilmTitle, screening.StartTime.In(loc).Format(ScreeningInfoLayout))
	}
	return resp
}
