package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

// Options are shared by the entity services.
type Options struct {
	// ItemTTL bounds how long items and listings stay cached. Zero selects
	// DefaultItemTTL.
	ItemTTL time.Duration
	Logger  *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.ItemTTL <= 0 {
		o.ItemTTL = DefaultItemTTL
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// DirectorStore is the persistence contract of DirectorsService.
type DirectorStore interface {
	Create(ctx context.Context, params repository.DirectorCreateParams) (domain.Director, error)
	FindByID(ctx context.Context, id string) (domain.Director, error)
	FindPage(ctx context.Context, q domain.ListQuery) ([]domain.Director, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, params repository.DirectorUpdateParams) (domain.Director, error)
	Delete(ctx context.Context, id string) (domain.Director, error)
}

// MovieStore is the persistence contract of MoviesService.
type MovieStore interface {
	Create(ctx context.Context, params repository.MovieCreateParams) (domain.Movie, error)
	FindByID(ctx context.Context, id string, expand bool) (domain.Movie, error)
	FindByImdbID(ctx context.Context, imdbID string) (domain.Movie, error)
	FindPage(ctx context.Context, q domain.ListQuery, filter domain.MovieFilter) ([]domain.Movie, error)
	Count(ctx context.Context, filter domain.MovieFilter) (int64, error)
	CountByDirector(ctx context.Context, directorID string) (int64, error)
	Update(ctx context.Context, id string, params repository.MovieUpdateParams, expand bool) (domain.Movie, error)
	Delete(ctx context.Context, id string) (domain.Movie, error)
}

var (
	_ DirectorStore = (*repository.DirectorsRepository)(nil)
	_ MovieStore    = (*repository.MoviesRepository)(nil)
)

func cacheOrNop(c Cache) Cache {
	if c == nil {
		return nopCache{}
	}
	return c
}

// validateSort rejects sort fields outside the allowed set for a kind.
func validateSort(q domain.ListQuery, allowed []string) error {
	for _, field := range allowed {
		if q.SortBy == field {
			return nil
		}
	}
	return domain.Invalid("sortBy must be one of %v", allowed)
}

// wrapStoreError passes domain errors through and wraps anything else.
func wrapStoreError(op string, err error) error {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
