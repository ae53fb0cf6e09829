package adaptor

import (
	"net/http"

	"cinema-ledger/internal/dto/request"
	"cinema-ledger/internal/usecase"
	"cinema-ledger/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type HallHandler struct {
	service usecase.HallService
	log     *zap.Logger
}

func NewHallHandler(service usecase.HallService, log *zap.Logger) *HallHandler {
	return &HallHandler{
		service: service,
		log:     log.With(zap.String("handler", "hall")),
	}
}

func (h *HallHandler) ListHalls(w http.ResponseWriter, r *http.Request) {
	req := pagination(r)

	halls, err := h.service.ListHalls(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "list halls")
		return
	}

	utils.ResponseSuccess(w, "Halls retrieved successfully", halls)
}

func (h *HallHandler) GetHall(w http.ResponseWriter, r *http.Request) {
	hall, err := h.service.GetHall(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get hall")
		return
	}

	utils.ResponseSuccess(w, "Hall retrieved successfully", hall)
}

func (h *HallHandler) CreateHall(w http.ResponseWriter, r *http.Request) {
	var req request.HallRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hall, err := h.service.CreateHall(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create hall")
		return
	}

	utils.ResponseCreated(w, "Hall created successfully", hall)
}

func (h *HallHandler) UpdateHall(w http.ResponseWriter, r *http.Request) {
	var req request.HallUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hall, err := h.service.UpdateHall(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update hall")
		return
	}

	utils.ResponseSuccess(w, "Hall updated successfully", hall)
}

func (h *HallHandler) DeleteHall(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteHall(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete hall")
		return
	}

	utils.ResponseSuccess(w, "Hall deleted successfully", nil)
}
