package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// DirectorsRepository provides persistence helpers for director entities.
type DirectorsRepository struct {
	pool *pgxpool.Pool
}

const directorColumns = `
    id,
    first_name,
    last_name,
    birth_date,
    bio,
    created_at,
    updated_at
`

var directorSortColumns = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
	"createdAt": "created_at",
}

// DirectorCreateParams bundles the fields required to create a director.
type DirectorCreateParams struct {
	FirstName string
	LastName  *string
	BirthDate *time.Time
	Bio       *string
}

// DirectorUpdateParams lists the fields to change; nil fields are kept.
type DirectorUpdateParams struct {
	FirstName *string
	LastName  *string
	BirthDate *time.Time
	Bio       *string
}

// Create inserts a new director row and returns the stored entity.
func (r *DirectorsRepository) Create(ctx context.Context, params DirectorCreateParams) (domain.Director, error) {
	query := fmt.Sprintf(`
        INSERT INTO directors (first_name, last_name, birth_date, bio)
        VALUES ($1,$2,$3,$4)
        RETURNING %s
    `, directorColumns)

	row := r.pool.QueryRow(ctx, query, params.FirstName, params.LastName, params.BirthDate, params.Bio)
	director, err := scanDirector(row)
	if err != nil {
		return domain.Director{}, mapWriteError(err)
	}
	return director, nil
}

// FindByID fetches a director by its identifier.
func (r *DirectorsRepository) FindByID(ctx context.Context, id string) (domain.Director, error) {
	if !validID(id) {
		return domain.Director{}, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM directors WHERE id = $1`, directorColumns)
	director, err := scanDirector(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Director{}, ErrNotFound
		}
		return domain.Director{}, err
	}
	return director, nil
}

// FindPage returns one page of directors in the requested order.
func (r *DirectorsRepository) FindPage(ctx context.Context, q domain.ListQuery) ([]domain.Director, error) {
	q = q.WithDefaults()
	column, ok := directorSortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}

	query := fmt.Sprintf(`SELECT %s FROM directors ORDER BY %s %s NULLS LAST, id %s LIMIT $1 OFFSET $2`,
		directorColumns, column, sqlOrder(q.Order), sqlOrder(q.Order))

	rows, err := r.pool.Query(ctx, query, q.Limit, q.Skip())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Director, 0, q.Limit)
	for rows.Next() {
		director, err := scanDirector(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, director)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the total number of directors.
func (r *DirectorsRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM directors`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count directors: %w", err)
	}
	return total, nil
}

// Update applies the non-nil fields of params and bumps updated_at.
func (r *DirectorsRepository) Update(ctx context.Context, id string, params DirectorUpdateParams) (domain.Director, error) {
	if !validID(id) {
		return domain.Director{}, ErrNotFound
	}
	query := fmt.Sprintf(`
        UPDATE directors
        SET first_name = COALESCE($2, first_name),
            last_name = COALESCE($3, last_name),
            birth_date = COALESCE($4, birth_date),
            bio = COALESCE($5, bio),
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, directorColumns)

	row := r.pool.QueryRow(ctx, query, id, params.FirstName, params.LastName, params.BirthDate, params.Bio)
	director, err := scanDirector(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Director{}, ErrNotFound
		}
		return domain.Director{}, mapWriteError(err)
	}
	return director, nil
}

// Delete removes a director and returns the removed row.
func (r *DirectorsRepository) Delete(ctx context.Context, id string) (domain.Director, error) {
	if !validID(id) {
		return domain.Director{}, ErrNotFound
	}
	query := fmt.Sprintf(`DELETE FROM directors WHERE id = $1 RETURNING %s`, directorColumns)
	director, err := scanDirector(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Director{}, ErrNotFound
		}
		return domain.Director{}, err
	}
	return director, nil
}

func scanDirector(row pgx.Row) (domain.Director, error) {
	var director domain.Director
	err := row.Scan(
		&director.ID,
		&director.FirstName,
		&director.LastName,
		&director.BirthDate,
		&director.Bio,
		&director.CreatedAt,
		&director.UpdatedAt,
	)
	if err != nil {
		return domain.Director{}, err
	}
	return director, nil
}

func sqlOrder(order string) string {
	if strings.EqualFold(order, domain.SortAsc) {
		return "ASC"
	}
	return "DESC"
}
