package repository

import (
	"context"
	"errors"
	"fmt"

	"cinema-ledger/internal/data/entity"
	"cinema-ledger/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type HallRepository interface {
	Create(ctx context.Context, hall *entity.Hall) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Hall, error)
	// FindByIDForUpdate row-locks the hall until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Hall, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Hall, error)
	CountAll(ctx context.Context) (int64, error)
	Update(ctx context.Context, hall *entity.Hall) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type hallRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewHallRepository(db database.Querier, log *zap.Logger) HallRepository {
	return &hallRepository{
		db:  db,
		log: log.With(zap.String("repository", "hall")),
	}
}

const hallColumns = `id, name, capacity, description, created_at, updated_at`

func scanHall(row pgx.Row) (*entity.Hall, error) {
	var hall entity.Hall
	err := row.Scan(
		&hall.ID,
		&hall.Name,
		&hall.Capacity,
		&hall.Description,
		&hall.CreatedAt,
		&hall.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &hall, nil
}

func (r *hallRepository) Create(ctx context.Context, hall *entity.Hall) error {
	query := `
		INSERT INTO cinema_halls (` + hallColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		hall.ID,
		hall.Name,
		hall.Capacity,
		hall.Description,
		hall.CreatedAt,
		hall.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create hall",
			zap.Error(err),
			zap.String("name", hall.Name),
			zap.Int("capacity", hall.Capacity),
		)
		return fmt.Errorf("create hall %q: %w", hall.Name, err)
	}

	return nil
}

func (r *hallRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Hall, error) {
	return r.findByID(ctx, id, false)
}

func (r *hallRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Hall, error) {
	return r.findByID(ctx, id, true)
}

func (r *hallRepository) findByID(ctx context.Context, id uuid.UUID, lock bool) (*entity.Hall, error) {
	query := `SELECT ` + hallColumns + ` FROM cinema_halls WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	hall, err := scanHall(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find hall by ID",
			zap.Error(err),
			zap.String("hall_id", id.String()),
			zap.Bool("lock", lock),
		)
		return nil, fmt.Errorf("find hall by ID %s: %w", id.String(), err)
	}

	return hall, nil
}

func (r *hallRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Hall, error) {
	query := `
		SELECT ` + hallColumns + `
		FROM cinema_halls
		ORDER BY name, id
		LIMIT $1 OFFSET $2
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to find all halls",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find halls: %w", err)
	}
	defer rows.Close()

	var halls []*entity.Hall
	for rows.Next() {
		hall, err := scanHall(rows)
		if err != nil {
			r.log.Error("Failed to scan hall row", zap.Error(err))
			return nil, fmt.Errorf("scan hall row: %w", err)
		}
		halls = append(halls, hall)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hall rows: %w", err)
	}

	return halls, nil
}

func (r *hallRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM cinema_halls`).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count halls", zap.Error(err))
		return 0, fmt.Errorf("count halls: %w", err)
	}
	return total, nil
}

func (r *hallRepository) Update(ctx context.Context, hall *entity.Hall) error {
	query := `
		UPDATE cinema_halls
		SET name = $2, capacity = $3, description = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		hall.ID,
		hall.Name,
		hall.Capacity,
		hall.Description,
		hall.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update hall",
			zap.Error(err),
			zap.String("hall_id", hall.ID.String()),
		)
		return fmt.Errorf("update hall %s: %w", hall.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("hall %s: %w", hall.ID.String(), ErrNotFound)
	}

	return nil
}

func (r *hallRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM cinema_halls WHERE id = $1`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		if code, _ := database.PgErrorCode(err); code == database.CodeForeignKeyViolation {
			return fmt.Errorf("delete hall %s: %w", id.String(), ErrReferenced)
		}
		r.log.Error("Failed to delete hall",
			zap.Error(err),
			zap.String("hall_id", id.String()),
		)
		return fmt.Errorf("delete hall %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("hall %s: %w", id.String(), ErrNotFound)
	}

	r.log.Info("Hall deleted", zap.String("hall_id", id.String()))
	return nil
}
