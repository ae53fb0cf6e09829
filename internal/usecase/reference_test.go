package usecase

import (
	"errors"
	"testing"

	"cinema-ledger/internal/data/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignReference(t *testing.T) {
	taken := map[string]bool{"AAAAAAAA": true, "BBBBBBBB": true}
	insert := func(ref string) error {
		if taken[ref] {
			return repository.ErrDuplicateReference
		}
		taken[ref] = true
		return nil
	}

	ref, err := assignReference(3, sequence("AAAAAAAA", "BBBBBBBB", "CCCCCCCC"), insert)
	require.NoError(t, err)
	assert.Equal(t, "CCCCCCCC", ref)

	_, err = assignReference(2, sequence("AAAAAAAA", "BBBBBBBB", "DDDDDDDD"), insert)
	assert.ErrorIs(t, err, ErrReferenceGenerationExhausted)
	assert.False(t, taken["DDDDDDDD"], "no attempt beyond the bound")

	boom := errors.New("connection reset")
	_, err = assignReference(5, sequence("EEEEEEEE"), func(string) error { return boom })
	assert.ErrorIs(t, err, boom)
}
