package repository

import (
	"cinema-ledger/internal/data/entity"
	"cinema-ledger/pkg/database"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type FilmRepository interface {
	Create(ctx context.Context, film *entity.Film) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Film, error)
	FindAll(ctx context.Context, limit, offset int, genre *string) ([]*entity.Film, error)
	CountAll(ctx context.Context, genre *string) (int64, error)
	Update(ctx context.Context, film *entity.Film) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type filmRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewFilmRepository(db database.Querier, log *zap.Logger) FilmRepository {
	return &filmRepository{
		db:  db,
		log: log.With(zap.String("repository", "film")),
	}
}

const filmColumns = `id, title, description, duration_minutes, release_year, genre, created_at, updated_at`

func scanFilm(row pgx.Row) (*entity.Film, error) {
	var film entity.Film
	err := row.Scan(
		&film.ID,
		&film.Title,
		&film.Description,
		&film.DurationMinutes,
		&film.ReleaseYear,
		&film.Genre,
		&film.CreatedAt,
		&film.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &film, nil
}

func (r *filmRepository) Create(ctx context.Context, film *entity.Film) error {
	query := `
		INSERT INTO films (` + filmColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		film.ID,
		film.Title,
		film.Description,
		film.DurationMinutes,
		film.ReleaseYear,
		film.Genre,
		film.CreatedAt,
		film.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create film",
			zap.Error(err),
			zap.String("title", film.Title),
		)
		return fmt.Errorf("create film %q: %w", film.Title, err)
	}

	return nil
}

func (r *filmRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Film, error) {
	query := `SELECT ` + filmColumns + ` FROM films WHERE id = $1`

	film, err := scanFilm(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find film by ID",
			zap.Error(err),
			zap.String("film_id", id.String()),
		)
		return nil, fmt.Errorf("find film by ID %s: %w", id.String(), err)
	}

	return film, nil
}

// genreClause matches the genre case-insensitively as a substring.
func genreClause(genre *string, args []any) (string, []any) {
	if genre == nil || *genre == "" {
		return "", args
	}
	args = append(args, "%"+escapeLike(*genre)+"%")
	return fmt.Sprintf(" WHERE genre ILIKE $%d", len(args)), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *filmRepository) FindAll(ctx context.Context, limit, offset int, genre *string) ([]*entity.Film, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + filmColumns + ` FROM films`)

	where, args := genreClause(genre, nil)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY title, id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
	args = append(args, limit, offset)

	rows, err := database.Conn(ctx, r.db).Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to find all films",
			zap.Error(err),
			zap.Int("offset", offset),
			zap.Int("limit", limit),
			zap.Stringp("genre", genre),
		)
		return nil, fmt.Errorf("find films: %w", err)
	}
	defer rows.Close()

	var films []*entity.Film
	for rows.Next() {
		film, err := scanFilm(rows)
		if err != nil {
			r.log.Error("Failed to scan film row", zap.Error(err))
			return nil, fmt.Errorf("scan film row: %w", err)
		}
		films = append(films, film)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate film rows: %w", err)
	}

	return films, nil
}

func (r *filmRepository) CountAll(ctx context.Context, genre *string) (int64, error) {
	where, args := genreClause(genre, nil)
	query := `SELECT COUNT(*) FROM films` + where

	var total int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, args...).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count films",
			zap.Error(err),
			zap.Stringp("genre", genre),
		)
		return 0, fmt.Errorf("count films: %w", err)
	}

	return total, nil
}

func (r *filmRepository) Update(ctx context.Context, film *entity.Film) error {
	query := `
		UPDATE films
		SET title = $2, description = $3, duration_minutes = $4,
		    release_year = $5, genre = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		film.ID,
		film.Title,
		film.Description,
		film.DurationMinutes,
		film.ReleaseYear,
		film.Genre,
		film.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update film",
			zap.Error(err),
			zap.String("film_id", film.ID.String()),
		)
		return fmt.Errorf("update film %s: %w", film.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("film %s: %w", film.ID.String(), ErrNotFound)
	}

	return nil
}

func (r *filmRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM films WHERE id = $1`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		if code, _ := database.PgErrorCode(err); code == database.CodeForeignKeyViolation {
			return fmt.Errorf("delete film %s: %w", id.String(), ErrReferenced)
		}
		r.log.Error("Failed to delete film",
			zap.Error(err),
			zap.String("film_id", id.String()),
		)
		return fmt.Errorf("delete film %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("film %s: %w", id.String(), ErrNotFound)
	}

	r.log.Info("Film deleted", zap.String("film_id", id.String()))
	return nil
}
