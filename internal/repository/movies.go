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

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `
    m.id,
    m.title,
    m.description,
    m.release_date,
    m.genre,
    m.rating::float8,
    m.imdb_id,
    m.director_id,
    m.created_at,
    m.updated_at
`

// joinedDirectorColumns are appended when the director is expanded.
const joinedDirectorColumns = `,
    d.id,
    d.first_name,
    d.last_name,
    d.birth_date,
    d.bio,
    d.created_at,
    d.updated_at
`

var movieSortColumns = map[string]string{
	"title":       "m.title",
	"rating":      "m.rating",
	"releaseDate": "m.release_date",
	"createdAt":   "m.created_at",
}

// MovieCreateParams bundles the fields required to create a movie.
type MovieCreateParams struct {
	Title       string
	Description *string
	ReleaseDate *time.Time
	Genre       *string
	Rating      *float64
	ImdbID      *string
	DirectorID  string
}

// MovieUpdateParams lists the fields to change; nil fields are kept.
type MovieUpdateParams struct {
	Title       *string
	Description *string
	ReleaseDate *time.Time
	Genre       *string
	Rating      *float64
	ImdbID      *string
	DirectorID  *string
}

// Create inserts a new movie row and returns the stored entity.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	query := fmt.Sprintf(`
        INSERT INTO movies AS m (title, description, release_date, genre, rating, imdb_id, director_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING %s
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query,
		params.Title, params.Description, params.ReleaseDate, params.Genre,
		params.Rating, params.ImdbID, params.DirectorID)
	movie, err := scanMovie(row, false)
	if err != nil {
		return domain.Movie{}, mapWriteError(err)
	}
	return movie, nil
}

// FindByID fetches a movie, joining its director when expand is set.
func (r *MoviesRepository) FindByID(ctx context.Context, id string, expand bool) (domain.Movie, error) {
	if !validID(id) {
		return domain.Movie{}, ErrNotFound
	}
	query := selectMovies(expand) + ` WHERE m.id = $1`
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id), expand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// FindByImdbID fetches the movie carrying imdbID.
func (r *MoviesRepository) FindByImdbID(ctx context.Context, imdbID string) (domain.Movie, error) {
	query := selectMovies(false) + ` WHERE m.imdb_id = $1`
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, imdbID), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// FindPage returns one page of movies matching filter.
func (r *MoviesRepository) FindPage(ctx context.Context, q domain.ListQuery, filter domain.MovieFilter) ([]domain.Movie, error) {
	q = q.WithDefaults()
	where, args, ok := movieWhere(filter)
	if !ok {
		return []domain.Movie{}, nil
	}

	column, found := movieSortColumns[q.SortBy]
	if !found {
		column = "m.created_at"
	}

	var query strings.Builder
	query.WriteString(selectMovies(q.Expand))
	query.WriteString(where)
	order := sqlOrder(q.Order)
	query.WriteString(fmt.Sprintf(" ORDER BY %s %s NULLS LAST, m.id %s", column, order, order))
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
	args = append(args, q.Limit, q.Skip())

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Movie, 0, q.Limit)
	for rows.Next() {
		movie, err := scanMovie(rows, q.Expand)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the number of movies matching filter.
func (r *MoviesRepository) Count(ctx context.Context, filter domain.MovieFilter) (int64, error) {
	where, args, ok := movieWhere(filter)
	if !ok {
		return 0, nil
	}
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movies m`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return total, nil
}

// CountByDirector returns how many movies reference directorID.
func (r *MoviesRepository) CountByDirector(ctx context.Context, directorID string) (int64, error) {
	return r.Count(ctx, domain.MovieFilter{DirectorID: &directorID})
}

// Update applies the non-nil fields of params, bumps updated_at, and returns
// the row as FindByID would with the same expand flag.
func (r *MoviesRepository) Update(ctx context.Context, id string, params MovieUpdateParams, expand bool) (domain.Movie, error) {
	if !validID(id) {
		return domain.Movie{}, ErrNotFound
	}
	if params.DirectorID != nil && !validID(*params.DirectorID) {
		return domain.Movie{}, fmt.Errorf("director id %q is not a uuid", *params.DirectorID)
	}

	query := fmt.Sprintf(`
        WITH m AS (
            UPDATE movies
            SET title = COALESCE($2, title),
                description = COALESCE($3, description),
                release_date = COALESCE($4, release_date),
                genre = COALESCE($5, genre),
                rating = COALESCE($6, rating),
                imdb_id = COALESCE($7, imdb_id),
                director_id = COALESCE($8::uuid, director_id),
                updated_at = now()
            WHERE id = $1
            RETURNING *
        )
        SELECT %s FROM m%s
    `, movieSelectList(expand), directorJoin(expand))

	row := r.pool.QueryRow(ctx, query, id,
		params.Title, params.Description, params.ReleaseDate, params.Genre,
		params.Rating, params.ImdbID, params.DirectorID)
	movie, err := scanMovie(row, expand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, mapWriteError(err)
	}
	return movie, nil
}

// Delete removes a movie and returns the removed row.
func (r *MoviesRepository) Delete(ctx context.Context, id string) (domain.Movie, error) {
	if !validID(id) {
		return domain.Movie{}, ErrNotFound
	}
	query := fmt.Sprintf(`DELETE FROM movies AS m WHERE m.id = $1 RETURNING %s`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

func movieSelectList(expand bool) string {
	if expand {
		return movieColumns + joinedDirectorColumns
	}
	return movieColumns
}

func directorJoin(expand bool) string {
	if expand {
		return ` LEFT JOIN directors d ON d.id = m.director_id`
	}
	return ""
}

func selectMovies(expand bool) string {
	return `SELECT ` + movieSelectList(expand) + ` FROM movies m` + directorJoin(expand)
}

// movieWhere builds the WHERE clause for filter. ok is false when the filter
// can never match, such as a malformed director id.
func movieWhere(filter domain.MovieFilter) (clause string, args []interface{}, ok bool) {
	where := make([]string, 0, 2)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Genre != nil {
		where = append(where, fmt.Sprintf("m.genre = %s", arg(*filter.Genre)))
	}
	if filter.DirectorID != nil {
		if !validID(*filter.DirectorID) {
			return "", nil, false
		}
		where = append(where, fmt.Sprintf("m.director_id = %s", arg(*filter.DirectorID)))
	}

	if len(where) == 0 {
		return "", args, true
	}
	return " WHERE " + strings.Join(where, " AND "), args, true
}

func scanMovie(row pgx.Row, expand bool) (domain.Movie, error) {
	var movie domain.Movie
	dest := []interface{}{
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.ReleaseDate,
		&movie.Genre,
		&movie.Rating,
		&movie.ImdbID,
		&movie.DirectorID,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	}

	var (
		directorID        *string
		directorFirstName *string
		director          domain.Director
		directorCreatedAt *time.Time
		directorUpdatedAt *time.Time
	)
	if expand {
		dest = append(dest,
			&directorID,
			&directorFirstName,
			&director.LastName,
			&director.BirthDate,
			&director.Bio,
			&directorCreatedAt,
			&directorUpdatedAt,
		)
	}

	if err := row.Scan(dest...); err != nil {
		return domain.Movie{}, err
	}

	if expand && directorID != nil {
		director.ID = *directorID
		if directorFirstName != nil {
			director.FirstName = *directorFirstName
		}
		if directorCreatedAt != nil {
			director.CreatedAt = *directorCreatedAt
		}
		if directorUpdatedAt != nil {
			director.UpdatedAt = *directorUpdatedAt
		}
		movie.Director = &director
	}
	return movie, nil
}
