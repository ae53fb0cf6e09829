package adaptor

import (
	"net/http"

	"cinema-ledger/internal/dto/request"
	"cinema-ledger/internal/usecase"
	"cinema-ledger/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type FilmHandler struct {
	service usecase.FilmService
	log     *zap.Logger
}

func NewFilmHandler(service usecase.FilmService, log *zap.Logger) *FilmHandler {
	return &FilmHandler{
		service: service,
		log:     log.With(zap.String("handler", "film")),
	}
}

// ListFilms handles GET /api/films
func (h *FilmHandler) ListFilms(w http.ResponseWriter, r *http.Request) {
	req := &request.FilmListRequest{
		PaginatedRequest: pagination(r),
		Genre:            optionalQuery(r, "genre"),
	}

	films, err := h.service.ListFilms(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list films")
		return
	}

	utils.ResponseSuccess(w, "Films retrieved successfully", films)
}

// GetFilm handles GET /api/films/{id}
func (h *FilmHandler) GetFilm(w http.ResponseWriter, r *http.Request) {
	film, err := h.service.GetFilm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get film")
		return
	}

	utils.ResponseSuccess(w, "Film retrieved successfully", film)
}

// CreateFilm handles POST /api/films
func (h *FilmHandler) CreateFilm(w http.ResponseWriter, r *http.Request) {
	var req request.FilmRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	film, err := h.service.CreateFilm(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create film")
		return
	}

	utils.ResponseCreated(w, "Film created successfully", film)
}

// UpdateFilm handles PUT /api/films/{id}
func (h *FilmHandler) UpdateFilm(w http.ResponseWriter, r *http.Request) {
	var req request.FilmUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	film, err := h.service.UpdateFilm(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update film")
		return
	}

	utils.ResponseSuccess(w, "Film updated successfully", film)
}

// DeleteFilm handles DELETE /api/films/{id}
func (h *FilmHandler) DeleteFilm(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFilm(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete film")
		return
	}

	utils.ResponseSuccess(w, "Film deleted successfully", nil)
}
