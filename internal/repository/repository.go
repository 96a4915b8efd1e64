package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrUniqueViolation matches every *UniqueViolationError.
var ErrUniqueViolation = errors.New("repository: unique violation")

const pgUniqueViolation = "23505"

// UniqueViolationError reports a write rejected by a unique index. Field is
// the API name of the offending attribute when it is known.
type UniqueViolationError struct {
	Field string
}

func (e *UniqueViolationError) Error() string {
	if e.Field == "" {
		return ErrUniqueViolation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrUniqueViolation, e.Field)
}

func (e *UniqueViolationError) Is(target error) bool {
	return target == ErrUniqueViolation
}

// uniqueFields maps index names to the attribute they guard.
var uniqueFields = map[string]string{
	"movies_imdb_id_key": "imdbId",
}

// mapWriteError turns store-level constraint errors into repository errors.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &UniqueViolationError{Field: uniqueFields[pgErr.ConstraintName]}
	}
	return err
}

// validID reports whether id can address a row. Malformed ids never match.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Directors *DirectorsRepository
	Movies    *MoviesRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Directors: &DirectorsRepository{pool: pool},
		Movies:    &MoviesRepository{pool: pool},
	}
}
