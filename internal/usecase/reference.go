package usecase

import (
	"errors"
	"fmt"

	"cinema-ledger/internal/data/repository"
)

// assignReference calls insert with freshly generated references until one is
// accepted by the store, giving up after attempts collisions.
func assignReference(attempts int, generate func() string, insert func(reference string) error) (string, error) {
	if attempts < 1 {
		attempts = 1
	}

	for range attempts {
		reference := generate()
		err := insert(reference)
		if err == nil {
			return reference, nil
		}
		if !errors.Is(err, repository.ErrDuplicateReference) {
			return "", err
		}
	}

	return "", fmt.Errorf("%w after %d attempts", ErrReferenceGenerationExhausted, attempts)
}
