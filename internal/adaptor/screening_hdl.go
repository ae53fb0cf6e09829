package adaptor

import (
	"net/http"
	"strconv"

	"cinema-ledger/internal/dto/request"
	"cinema-ledger/internal/usecase"
	"cinema-ledger/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ScreeningHandler struct {
	service usecase.ScreeningService
	log     *zap.Logger
}

func NewScreeningHandler(service usecase.ScreeningService, log *zap.Logger) *ScreeningHandler {
	return &ScreeningHandler{
		service: service,
		log:     log.With(zap.String("handler", "screening")),
	}
}

// ListScreenings handles GET /api/screenings?film_id=&date=
func (h *ScreeningHandler) ListScreenings(w http.ResponseWriter, r *http.Request) {
	req := &request.ScreeningListRequest{
		PaginatedRequest: pagination(r),
		FilmID:           optionalQuery(r, "film_id"),
		Date:             optionalQuery(r, "date"),
	}

	screenings, err := h.service.ListScreenings(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list screenings")
		return
	}

	utils.ResponseSuccess(w, "Screenings retrieved successfully", screenings)
}

// ListUpcoming handles GET /api/screenings/upcoming?film_id=&date=&limit=
func (h *ScreeningHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	req := &request.UpcomingScreeningsRequest{
		FilmID: optionalQuery(r, "film_id"),
		Date:   optionalQuery(r, "date"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			utils.ResponseBadRequest(w, "Validation failed", map[string]string{"limit": "Must be a non-negative integer"})
			return
		}
		req.Limit = limit
	}

	screenings, err := h.service.ListUpcoming(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list upcoming screenings")
		return
	}

	utils.ResponseSuccess(w, "Upcoming screenings retrieved successfully", screenings)
}

func (h *ScreeningHandler) GetScreening(w http.ResponseWriter, r *http.Request) {
	screening, err := h.service.GetScreening(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get screening")
		return
	}

	utils.ResponseSuccess(w, "Screening retrieved successfully", screening)
}

func (h *ScreeningHandler) CreateScreening(w http.ResponseWriter, r *http.Request) {
	var req request.ScreeningRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	screening, err := h.service.CreateScreening(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create screening")
		return
	}

	utils.ResponseCreated(w, "Screening created successfully", screening)
}

func (h *ScreeningHandler) UpdateScreening(w http.ResponseWriter, r *http.Request) {
	var req request.ScreeningUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	screening, err := h.service.UpdateScreening(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update screening")
		return
	}

	utils.ResponseSuccess(w, "Screening updated successfully", screening)
}

func (h *ScreeningHandler) DeleteScreening(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteScreening(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete screening")
		return
	}

	utils.ResponseSuccess(w, "Screening deleted successfully", nil)
}
