package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"cinema-ledger/internal/dto/request"
	"cinema-ledger/internal/usecase"
	"cinema-ledger/pkg/utils"

	"go.uber.org/zap"
)

// badRequestErrors all map to 400 with the error text as message.
var badRequestErrors = []error{
	usecase.ErrInvalidInterval,
	usecase.ErrInvalidSeatCount,
	usecase.ErrSeatsExceedCapacity,
	usecase.ErrScreeningAlreadyStarted,
	usecase.ErrInvalidStatusTransition,
}

var conflictErrors = []error{
	usecase.ErrScheduleConflict,
	usecase.ErrAlreadyCancelled,
	usecase.ErrInUse,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		validationErr   *usecase.ValidationError
		insufficientErr *usecase.InsufficientSeatsError
	)

	switch {
	case errors.As(err, &validationErr):
		log.Warn(operation+" validation failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, "Validation failed", validationErr.Fields)

	case isAny(err, badRequestErrors):
		log.Warn("Invalid input for "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case errors.As(err, &insufficientErr):
		log.Info(operation+" failed - insufficient seats",
			zap.Int("requested", insufficientErr.Requested),
			zap.Int("available", insufficientErr.Available))
		utils.ResponseConflict(w, usecase.ErrInsufficientSeats.Error(), map[string]int{
			"available": insufficientErr.Available,
		})

	case isAny(err, conflictErrors):
		log.Warn(operation+" failed - conflict",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrContention):
		log.Warn(operation+" failed - contention",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseServiceUnavailable(w, "Service busy, please retry")

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// decodeJSON reads the request body into dst, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// optionalQuery returns a pointer to the query value, nil when absent or empty.
func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func pagination(r *http.Request) request.PaginatedRequest {
	query := r.URL.Query()
	return request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}
}
