package entity

import (
	"time"

	"github.com/google/uuid"
)

type Screening struct {
	BaseNoDelete
	FilmID         uuid.UUID `db:"film_id"`
	HallID         uuid.UUID `db:"hall_id"`
	StartTime      time.Time `db:"start_time"`
	EndTime        time.Time `db:"end_time"`
	Price          float64   `db:"price"`
	AvailableSeats int       `db:"available_seats"`
}

// Overlaps reports whether [start, end) intersects the screening's interval.
// Touching intervals do not overlap.
func (s *Screening) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}

// IsAvailable is the presentation flag: seats left and not yet started.
func (s *Screening) IsAvailable(now time.Time) bool {
	return s.AvailableSeats > 0 && s.StartTime.After(now)
}

// IsBookable pre-flights a reservation of seats at now.
func (s *Screening) IsBookable(seats int, now time.Time) bool {
	return seats > 0 && s.StartTime.After(now) && seats <= s.AvailableSeats
}
