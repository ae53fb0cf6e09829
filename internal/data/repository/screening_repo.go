package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cinema-ledger/internal/data/entity"
	"cinema-ledger/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ScreeningFilter narrows screening listings. Nil fields are ignored and a
// zero Limit means no cap. Results are ordered by start time.
type ScreeningFilter struct {
	FilmID       *uuid.UUID
	HallID       *uuid.UUID
	StartsFrom   *time.Time // start_time >= StartsFrom
	StartsBefore *time.Time // start_time < StartsBefore
	Limit        int
	Offset       int
}

type ScreeningRepository interface {
	Create(ctx context.Context, screening *entity.Screening) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Screening, error)
	// FindByIDForUpdate row-locks the screening's seat counter until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Screening, error)
	// FindOverlapping returns screenings in hallID whose [start, end) meets
	// the given interval, skipping excludeID.
	FindOverlapping(ctx context.Context, hallID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*entity.Screening, error)
	FindAll(ctx context.Context, filter ScreeningFilter) ([]*entity.Screening, error)
	CountAll(ctx context.Context, filter ScreeningFilter) (int64, error)
	CountByFilmID(ctx context.Context, filmID uuid.UUID) (int64, error)
	CountByHallID(ctx context.Context, hallID uuid.UUID) (int64, error)
	Update(ctx context.Context, screening *entity.Screening) error
	// ReserveSeats takes seats off the counter only if that many are left.
	ReserveSeats(ctx context.Context, id uuid.UUID, seats int) (bool, error)
	ReleaseSeats(ctx context.Context, id uuid.UUID, seats int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type screeningRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewScreeningRepository(db database.Querier, log *zap.Logger) ScreeningRepository {
	return &screeningRepository{
		db:  db,
		log: log.With(zap.String("repository", "screening")),
	}
}

const screeningColumns = `id, film_id, hall_id, start_time, end_time, price, available_seats, created_at, updated_at`

func scanScreening(row pgx.Row) (*entity.Screening, error) {
	var screening entity.Screening
	err := row.Scan(
		&screening.ID,
		&screening.FilmID,
		&screening.HallID,
		&screening.StartTime,
		&screening.EndTime,
		&screening.Price,
		&screening.AvailableSeats,
		&screening.CreatedAt,
		&screening.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &screening, nil
}

func collectScreenings(rows pgx.Rows) ([]*entity.Screening, error) {
	defer rows.Close()

	var screenings []*entity.Screening
	for rows.Next() {
		screening, err := scanScreening(rows)
		if err != nil {
			return nil, fmt.Errorf("scan screening row: %w", err)
		}
		screenings = append(screenings, screening)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate screening rows: %w", err)
	}
	return screenings, nil
}

func overlapError(err error) error {
	if code, _ := database.PgErrorCode(err); code == database.CodeExclusionViolation {
		return ErrOverlap
	}
	return nil
}

func (r *screeningRepository) Create(ctx context.Context, screening *entity.Screening) error {
	query := `
		INSERT INTO screenings (` + screeningColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		screening.ID,
		screening.FilmID,
		screening.HallID,
		screening.StartTime,
		screening.EndTime,
		screening.Price,
		screening.AvailableSeats,
		screening.CreatedAt,
		screening.UpdatedAt,
	)

	if err != nil {
		if overlap := overlapError(err); overlap != nil {
			return fmt.Errorf("create screening in hall %s: %w", screening.HallID.String(), overlap)
		}
		r.log.Error("Failed to create screening",
			zap.Error(err),
			zap.String("film_id", screening.FilmID.String()),
			zap.String("hall_id", screening.HallID.String()),
			zap.Time("start_time", screening.StartTime),
		)
		return fmt.Errorf("create screening for film %s hall %s: %w",
			screening.FilmID.String(), screening.HallID.String(), err)
	}

	return nil
}

func (r *screeningRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Screening, error) {
	return r.findByID(ctx, id, false)
}

func (r *screeningRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Screening, error) {
	return r.findByID(ctx, id, true)
}

func (r *screeningRepository) findByID(ctx context.Context, id uuid.UUID, lock bool) (*entity.Screening, error) {
	query := `SELECT ` + screeningColumns + ` FROM screenings WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	screening, err := scanScreening(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find screening by ID",
			zap.Error(err),
			zap.String("screening_id", id.String()),
			zap.Bool("lock", lock),
		)
		return nil, fmt.Errorf("find screening by ID %s: %w", id.String(), err)
	}

	return screening, nil
}

func (r *screeningRepository) FindOverlapping(ctx context.Context, hallID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*entity.Screening, error) {
	query := `
		SELECT ` + screeningColumns + `
		FROM screenings
		WHERE hall_id = $1 AND start_time < $3 AND end_time > $2 AND id <> $4
		ORDER BY start_time
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, hallID, start, end, excludeID)
	if err != nil {
		r.log.Error("Failed to find overlapping screenings",
			zap.Error(err),
			zap.String("hall_id", hallID.String()),
			zap.Time("start_time", start),
			zap.Time("end_time", end),
		)
		return nil, fmt.Errorf("find screenings overlapping hall %s: %w", hallID.String(), err)
	}

	return collectScreenings(rows)
}

func (f ScreeningFilter) where() (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.FilmID != nil {
		add("film_id = $%d", *f.FilmID)
	}
	if f.HallID != nil {
		add("hall_id = $%d", *f.HallID)
	}
	if f.StartsFrom != nil {
		add("start_time >= $%d", *f.StartsFrom)
	}
	if f.StartsBefore != nil {
		add("start_time < $%d", *f.StartsBefore)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *screeningRepository) FindAll(ctx context.Context, filter ScreeningFilter) ([]*entity.Screening, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + screeningColumns + ` FROM screenings`)

	where, args := filter.where()
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(" ORDER BY start_time, id")

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
		r.log.Error("Failed to find screenings",
			zap.Error(err),
			zap.Int("limit", filter.Limit),
			zap.Int("offset", filter.Offset),
		)
		return nil, fmt.Errorf("find screenings: %w", err)
	}

	screenings, err := collectScreenings(rows)
	if err != nil {
		r.log.Error("Failed to read screening rows", zap.Error(err))
		return nil, err
	}
	return screenings, nil
}

func (r *screeningRepository) CountAll(ctx context.Context, filter ScreeningFilter) (int64, error) {
	where, args := filter.where()

	var total int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM screenings`+where, args...).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count screenings", zap.Error(err))
		return 0, fmt.Errorf("count screenings: %w", err)
	}
	return total, nil
}

func (r *screeningRepository) CountByFilmID(ctx context.Context, filmID uuid.UUID) (int64, error) {
	return r.CountAll(ctx, ScreeningFilter{FilmID: &filmID})
}

func (r *screeningRepository) CountByHallID(ctx context.Context, hallID uuid.UUID) (int64, error) {
	return r.CountAll(ctx, ScreeningFilter{HallID: &hallID})
}

func (r *screeningRepository) Update(ctx context.Context, screening *entity.Screening) error {
	query := `
		UPDATE screenings
		SET film_id = $2, hall_id = $3, start_time = $4, end_time = $5,
		    price = $6, available_seats = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		screening.ID,
		screening.FilmID,
		screening.HallID,
		screening.StartTime,
		screening.EndTime,
		screening.Price,
		screening.AvailableSeats,
		screening.UpdatedAt,
	)

	if err != nil {
		if overlap := overlapError(err); overlap != nil {
			return fmt.Errorf("update screening %s: %w", screening.ID.String(), overlap)
		}
		r.log.Error("Failed to update screening",
			zap.Error(err),
			zap.String("screening_id", screening.ID.String()),
		)
		return fmt.Errorf("update screening %s: %w", screening.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("screening %s: %w", screening.ID.String(), ErrNotFound)
	}

	return nil
}

func (r *screeningRepository) ReserveSeats(ctx context.Context, id uuid.UUID, seats int) (bool, error) {
	query := `
		UPDATE screenings
		SET available_seats = available_seats - $2, updated_at = NOW()
		WHERE id = $1 AND available_seats >= $2
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, id, seats)
	if err != nil {
		r.log.Error("Failed to reserve seats",
			zap.Error(err),
			zap.String("screening_id", id.String()),
			zap.Int("seats", seats),
		)
		return false, fmt.Errorf("reserve %d seats on screening %s: %w", seats, id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *screeningRepository) ReleaseSeats(ctx context.Context, id uuid.UUID, seats int) error {
	query := `
		UPDATE screenings
		SET available_seats = available_seats + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, id, seats)
	if err != nil {
		r.log.Error("Failed to release seats",
			zap.Error(err),
			zap.String("screening_id", id.String()),
			zap.Int("seats", seats),
		)
		return fmt.Errorf("release %d seats on screening %s: %w", seats, id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("screening %s: %w", id.String(), ErrNotFound)
	}

	return nil
}

func (r *screeningRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM screenings WHERE id = $1`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		if code, _ := database.PgErrorCode(err); code == database.CodeForeignKeyViolation {
			return fmt.Errorf("delete screening %s: %w", id.String(), ErrReferenced)
		}
		r.log.Error("Failed to delete screening",
			zap.Error(err),
			zap.String("screening_id", id.String()),
		)
		return fmt.Errorf("delete screening %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("screening %s: %w", id.String(), ErrNotFound)
	}

	r.log.Info("Screening deleted", zap.String("screening_id", id.String()))
	return nil
}
