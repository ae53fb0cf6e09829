package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// ==================== UUID ====================

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

// ==================== BOOKING REFERENCE ====================

const (
	BookingReferenceLength   = 8
	BookingReferenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var referenceAlphabetSize = big.NewInt(int64(len(BookingReferenceAlphabet)))

// GenerateBookingReference returns 8 uppercase letters and digits.
// Uniqueness is not checked here, the bookings table enforces it.
func GenerateBookingReference() string {
	ref := make([]byte, BookingReferenceLength)
	for i := range ref {
		n, err := rand.Int(rand.Reader, referenceAlphabetSize)
		if err != nil {
			panic("crypto/rand unavailable: " + err.Error())
		}
		ref[i] = BookingReferenceAlphabet[n.Int64()]
	}
	return string(ref)
}

// IsBookingReference reports whether ref has the booking reference shape.
func IsBookingReference(ref string) bool {
	if len(ref) != BookingReferenceLength {
		return false
	}
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
