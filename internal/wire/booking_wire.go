package wire

import (
	"cinema-ledger/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler) {
	r.Route("/api/bookings", func(r chi.Router) {
		r.Get("/", bookingHandler.ListBookings)
		r.Post("/", bookingHandler.CreateBooking)

		// GET /api/bookings/reference/{reference} - lookup by the 8-character code
		r.Get("/reference/{reference}", bookingHandler.GetBookingByReference)

		r.Get("/{id}", bookingHandler.GetBooking)
		r.Patch("/{id}", bookingHandler.UpdateBooking)
		r.Post("/{id}/cancel", bookingHandler.CancelBooking)
	})
}
