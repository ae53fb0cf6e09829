package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RunMigrations applies the schema. Every statement is idempotent.
func RunMigrations(ctx context.Context, db Querier, log *zap.Logger) error {
	log.Info("Running database migrations")

	migrations := []string{
		createBtreeGistExtension,
		createFilmsTable,
		createCinemaHallsTable,
		createScreeningsTable,
		createScreeningsStartIndex,
		createBookingsTable,
		createBookingsScreeningIndex,
	}

	for i, migration := range migrations {
		log.Debug("Running migration", zap.Int("step", i+1))
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Info("All migrations completed successfully", zap.Int("steps", len(migrations)))
	return nil
}

// btree_gist lets the exclusion constraint mix uuid equality with range overlap.
const createBtreeGistExtension = `CREATE EXTENSION IF NOT EXISTS btree_gist;`

const createFilmsTable = `
CREATE TABLE IF NOT EXISTS films (
    id UUID PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
    release_year INTEGER NOT NULL CHECK (release_year > 0),
    genre VARCHAR(100) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createCinemaHallsTable = `
CREATE TABLE IF NOT EXISTS cinema_halls (
    id UUID PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    capacity INTEGER NOT NULL CHECK (capacity > 0),
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createScreeningsTable = `
CREATE TABLE IF NOT EXISTS screenings (
    id UUID PRIMARY KEY,
    film_id UUID NOT NULL REFERENCES films(id) ON DELETE RESTRICT,
    hall_id UUID NOT NULL REFERENCES cinema_halls(id) ON DELETE RESTRICT,
    start_time TIMESTAMPTZ NOT NULL,
    end_time TIMESTAMPTZ NOT NULL,
    price NUMERIC(8,2) NOT NULL CHECK (price > 0),
    available_seats INTEGER NOT NULL CHECK (available_seats >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT screenings_interval_check CHECK (end_time > start_time),
    CONSTRAINT screenings_no_overlap EXCLUDE USING gist (
        hall_id WITH =,
        tstzrange(start_time, end_time, '[)') WITH &&
    )
);`

const createScreeningsStartIndex = `
CREATE INDEX IF NOT EXISTS screenings_start_time_idx ON screenings (start_time);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id UUID PRIMARY KEY,
    screening_id UUID NOT NULL REFERENCES screenings(id) ON DELETE RESTRICT,
    customer_name VARCHAR(100) NOT NULL,
    customer_email VARCHAR(254) NOT NULL,
    customer_phone VARCHAR(20) NOT NULL,
    seats INTEGER NOT NULL CHECK (seats > 0),
    total_price NUMERIC(10,2) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    booking_reference VARCHAR(10) NOT NULL,
    booking_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT bookings_booking_reference_key UNIQUE (booking_reference),
    CONSTRAINT bookings_status_check CHECK (status IN ('pending', 'confirmed', 'cancelled'))
);`

const createBookingsScreeningIndex = `
CREATE INDEX IF NOT EXISTS bookings_screening_id_idx ON bookings (screening_id);`
