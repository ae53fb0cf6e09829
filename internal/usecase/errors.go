package usecase

import (
	"errors"
	"fmt"

	"cinema-ledger/internal/data/repository"
	"cinema-ledger/pkg/database"
	"cinema-ledger/pkg/utils"
)

var (
	ErrValidation                   = errors.New("validation failed")
	ErrInvalidInterval              = errors.New("end time must be after start time")
	ErrScheduleConflict             = errors.New("hall already has a screening in that time range")
	ErrInvalidSeatCount             = errors.New("seat count must be positive")
	ErrScreeningAlreadyStarted      = errors.New("screening has already started")
	ErrInsufficientSeats            = errors.New("not enough seats available")
	ErrNotFound                     = repository.ErrNotFound
	ErrAlreadyCancelled             = errors.New("booking is already cancelled")
	ErrReferenceGenerationExhausted = errors.New("could not generate a unique booking reference")
	ErrSeatsExceedCapacity          = errors.New("available seats exceed hall capacity")
	ErrInUse                        = errors.New("resource is still referenced")
	ErrInvalidStatusTransition      = errors.New("invalid booking status transition")
	ErrContention                   = database.ErrContention
)

// ValidationError lists the offending fields by their JSON names.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, utils.FormatValidationErrors(e.Fields))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidField(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// validate runs struct tags on req.
func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

type InsufficientSeatsError struct {
	Requested int
	Available int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("%s: requested %d, available %d", ErrInsufficientSeats, e.Requested, e.Available)
}

func (e *InsufficientSeatsError) Is(target error) bool {
	return target == ErrInsufficientSeats
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
