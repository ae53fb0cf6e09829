package wire

import (
	"cinema-ledger/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireScreening(r chi.Router, screeningHandler *adaptor.ScreeningHandler) {
	r.Route("/api/screenings", func(r chi.Router) {
		r.Get("/", screeningHandler.ListScreenings)
		r.Post("/", screeningHandler.CreateScreening)
		r.Get("/upcoming", screeningHandler.ListUpcoming)
		r.Get("/{id}", screeningHandler.GetScreening)
		r.Put("/{id}", screeningHandler.UpdateScreening)
		r.Delete("/{id}", screeningHandler.DeleteScreening)
	})
}
