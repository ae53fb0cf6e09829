package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID               uuid.UUID     `db:"id"`
	ScreeningID      uuid.UUID     `db:"screening_id"`
	CustomerName     string        `db:"customer_name"`
	CustomerEmail    string        `db:"customer_email"`
	CustomerPhone    string        `db:"customer_phone"`
	Seats            int           `db:"seats"`
	TotalPrice       float64       `db:"total_price"`
	Status           BookingStatus `db:"status"`
	BookingReference string        `db:"booking_reference"`
	BookingDate      time.Time     `db:"booking_date"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}
