package adaptor

import (
	"cinema-ledger/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Film      *FilmHandler
	Hall      *HallHandler
	Screening *ScreeningHandler
	Booking   *BookingHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Film:      NewFilmHandler(service.Film, log),
		Hall:      NewHallHandler(service.Hall, log),
		Screening: NewScreeningHandler(service.Screening, log),
		Booking:   NewBookingHandler(service.Booking, log),
	}
}
