package wire

import (
	"cinema-ledger/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireFilm(r chi.Router, filmHandler *adaptor.FilmHandler) {
	r.Route("/api/films", func(r chi.Router) {
		r.Get("/", filmHandler.ListFilms)         // GET /api/films?genre=&page=&per_page=
		r.Post("/", filmHandler.CreateFilm)       // POST /api/films
		r.Get("/{id}", filmHandler.GetFilm)       // GET /api/films/{id}
		r.Put("/{id}", filmHandler.UpdateFilm)    // PUT /api/films/{id}
		r.Delete("/{id}", filmHandler.DeleteFilm) // DELETE /api/films/{id}
	})
}

func wireHall(r chi.Router, hallHandler *adaptor.HallHandler) {
	r.Route("/api/halls", func(r chi.Router) {
		r.Get("/", hallHandler.ListHalls)
		r.Post("/", hallHandler.CreateHall)
		r.Get("/{id}", hallHandler.GetHall)
		r.Put("/{id}", hallHandler.UpdateHall)
		r.Delete("/{id}", hallHandler.DeleteHall)
	})
}
