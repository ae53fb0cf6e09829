package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cinema-ledger/internal/data/entity"
	"cinema-ledger/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const bookingReferenceConstraint = "bookings_booking_reference_key"

// BookingFilter narrows booking listings; nil fields are ignored.
type BookingFilter struct {
	ScreeningID *uuid.UUID
	Status      *entity.BookingStatus
	Limit       int
	Offset      int
}

type BookingRepository interface {
	// Create inserts the booking. A reference collision returns
	// ErrDuplicateReference and leaves the surrounding transaction usable.
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByReference(ctx context.Context, reference string) (*entity.Booking, error)
	FindAll(ctx context.Context, filter BookingFilter) ([]*entity.Booking, error)
	CountAll(ctx context.Context, filter BookingFilter) (int64, error)
	CountByScreeningID(ctx context.Context, screeningID uuid.UUID) (int64, error)
	Update(ctx context.Context, booking *entity.Booking) error
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, screening_id, customer_name, customer_email, customer_phone, seats,
	total_price, status, booking_reference, booking_date, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.ScreeningID,
		&booking.CustomerName,
		&booking.CustomerEmail,
		&booking.CustomerPhone,
		&booking.Seats,
		&booking.TotalPrice,
		&booking.Status,
		&booking.BookingReference,
		&booking.BookingDate,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) (err error) {
	// Inside a transaction Begin opens a savepoint, so a failed insert only
	// unwinds itself.
	sp, err := database.Conn(ctx, r.db).Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking insert: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := sp.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.log.Error("Failed to rollback booking insert", zap.Error(rbErr))
			}
		}
	}()

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = sp.Exec(ctx, query,
		booking.ID,
		booking.ScreeningID,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
		booking.Seats,
		booking.TotalPrice,
		booking.Status,
		booking.BookingReference,
		booking.BookingDate,
		booking.UpdatedAt,
	)
	if err != nil {
		code, constraint := database.PgErrorCode(err)
		if code == database.CodeUniqueViolation && constraint == bookingReferenceConstraint {
			return fmt.Errorf("booking reference %s: %w", booking.BookingReference, ErrDuplicateReference)
		}
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("screening_id", booking.ScreeningID.String()),
			zap.Int("seats", booking.Seats),
		)
		return fmt.Errorf("create booking for screening %s: %w", booking.ScreeningID.String(), err)
	}

	if err = sp.Commit(ctx); err != nil {
		return fmt.Errorf("release booking insert: %w", err)
	}
	return nil
}

func (r *bookingRepository) findOne(ctx context.Context, where string, arg any, lock bool) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + where
	if lock {
		query += ` FOR UPDATE`
	}

	booking, err := scanBooking(database.Conn(ctx, r.db).QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return booking, err
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, err := r.findOne(ctx, "id = $1", id, false)
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}
	return booking, nil
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, err := r.findOne(ctx, "id = $1", id, true)
	if err != nil {
		r.log.Error("Failed to lock booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("lock booking %s: %w", id.String(), err)
	}
	return booking, nil
}

func (r *bookingRepository) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	booking, err := r.findOne(ctx, "booking_reference = $1", reference, false)
	if err != nil {
		r.log.Error("Failed to find booking by reference",
			zap.Error(err),
			zap.String("booking_reference", reference),
		)
		return nil, fmt.Errorf("find booking by reference %s: %w", reference, err)
	}
	return booking, nil
}

func (f BookingFilter) where() (string, []any) {
	var conds []string
	var args []any

	if f.ScreeningID != nil {
		args = append(args, *f.ScreeningID)
		conds = append(conds, fmt.Sprintf("screening_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *bookingRepository) FindAll(ctx context.Context, filter BookingFilter) ([]*entity.Booking, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + bookingColumns + ` FROM bookings`)

	where, args := filter.where()
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(" ORDER BY booking_date DESC, id")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	rows, err := database.Conn(ctx, r.db).Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to find bookings",
			zap.Error(err),
			zap.Int("limit", filter.Limit),
			zap.Int("offset", filter.Offset),
		)
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) CountAll(ctx context.Context, filter BookingFilter) (int64, error) {
	where, args := filter.where()

	var total int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return total, nil
}

func (r *bookingRepository) CountByScreeningID(ctx context.Context, screeningID uuid.UUID) (int64, error) {
	return r.CountAll(ctx, BookingFilter{ScreeningID: &screeningID})
}

// Update writes the mutable fields. Reference, seats and price are frozen at creation.
func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET customer_name = $2, customer_email = $3, customer_phone = $4,
		    status = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		booking.ID,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
		booking.Status,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return fmt.Errorf("update booking %s: %w", booking.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", booking.ID.String(), ErrNotFound)
	}

	return nil
}
