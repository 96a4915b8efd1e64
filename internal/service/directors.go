package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

var directorKeys = keyspace{kind: "directors"}

// DirectorsService manages directors. Deleting a director is refused while
// movies reference it.
type DirectorsService struct {
	repo   DirectorStore
	movies MovieStore
	cached cacheAside[domain.DirectorView]
	logger *zap.Logger
}

// NewDirectorsService wires the service. A nil cache disables caching.
func NewDirectorsService(repo DirectorStore, movies MovieStore, cache Cache, opts Options) *DirectorsService {
	opts = opts.withDefaults()
	return &DirectorsService{
		repo:   repo,
		movies: movies,
		cached: cacheAside[domain.DirectorView]{cache: cacheOrNop(cache), keys: directorKeys, ttl: opts.ItemTTL},
		logger: opts.Logger.Named("directors"),
	}
}

// Create validates and stores a director, caches it, and drops cached listings.
func (s *DirectorsService) Create(ctx context.Context, in domain.DirectorInput) (domain.DirectorView, error) {
	in.Normalize()
	if err := domain.Validate(in); err != nil {
		return domain.DirectorView{}, err
	}
	birthDate, err := domain.ParseDatePtr(in.BirthDate)
	if err != nil {
		return domain.DirectorView{}, domain.Invalid("birthDate must be an ISO 8601 date")
	}

	director, err := s.repo.Create(ctx, repository.DirectorCreateParams{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		BirthDate: birthDate,
		Bio:       in.Bio,
	})
	if err != nil {
		return domain.DirectorView{}, wrapStoreError("create director", err)
	}

	view := domain.NewDirectorView(director)
	s.cached.store(ctx, directorKeys.item(view.ID, false), view)
	s.cached.invalidateLists(ctx)
	s.logger.Debug("director created", zap.String("id", view.ID))
	return view, nil
}

// Get returns one director.
func (s *DirectorsService) Get(ctx context.Context, id string) (domain.DirectorView, error) {
	return s.cached.read(ctx, directorKeys.item(id, false), func(ctx context.Context) (domain.DirectorView, error) {
		director, err := s.repo.FindByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DirectorView{}, domain.NotFound("director not found")
		}
		if err != nil {
			return domain.DirectorView{}, wrapStoreError("find director", err)
		}
		s.logger.Debug("director loaded from store", zap.String("id", id))
		return domain.NewDirectorView(director), nil
	})
}

// List returns one page of directors.
func (s *DirectorsService) List(ctx context.Context, q domain.ListQuery) (domain.Page[domain.DirectorView], error) {
	q = q.WithDefaults()
	q.Expand = false
	if err := validateSort(q, domain.DirectorSortFields); err != nil {
		return domain.Page[domain.DirectorView]{}, err
	}

	fetch := func(ctx context.Context) ([]domain.DirectorView, error) {
		directors, err := s.repo.FindPage(ctx, q)
		if err != nil {
			return nil, wrapStoreError("list directors", err)
		}
		views := make([]domain.DirectorView, 0, len(directors))
		for _, d := range directors {
			views = append(views, domain.NewDirectorView(d))
		}
		return views, nil
	}
	count := func(ctx context.Context) (int64, error) {
		total, err := s.repo.Count(ctx)
		if err != nil {
			return 0, wrapStoreError("count directors", err)
		}
		return total, nil
	}
	return s.cached.readPage(ctx, directorKeys.list(q), q, fetch, count)
}

// Update applies a partial update. It invalidates the director's own entries
// and every cached movie view that nests the director.
func (s *DirectorsService) Update(ctx context.Context, id string, patch domain.DirectorPatch) (domain.DirectorView, error) {
	patch.Normalize()
	if err := domain.Validate(patch); err != nil {
		return domain.DirectorView{}, err
	}
	birthDate, err := domain.ParseDatePtr(patch.BirthDate)
	if err != nil {
		return domain.DirectorView{}, domain.Invalid("birthDate must be an ISO 8601 date")
	}

	director, err := s.repo.Update(ctx, id, repository.DirectorUpdateParams{
		FirstName: patch.FirstName,
		LastName:  patch.LastName,
		BirthDate: birthDate,
		Bio:       patch.Bio,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return domain.DirectorView{}, domain.NotFound("director not found")
	}
	if err != nil {
		return domain.DirectorView{}, wrapStoreError("update director", err)
	}

	s.cached.invalidate(ctx, id)
	s.invalidateExpandedMovies(ctx, id)
	s.logger.Debug("director updated", zap.String("id", id))
	return domain.NewDirectorView(director), nil
}

// Delete removes a director that no movie references. The reference check
// and the delete are not atomic; a movie created in between is not detected.
func (s *DirectorsService) Delete(ctx context.Context, id string) (domain.DirectorView, error) {
	referencing, err := s.movies.CountByDirector(ctx, id)
	if err != nil {
		return domain.DirectorView{}, wrapStoreError("count director movies", err)
	}
	if referencing > 0 {
		return domain.DirectorView{}, domain.Conflict("cannot delete director: %d movies reference this director", referencing)
	}

	director, err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.DirectorView{}, domain.NotFound("director not found")
	}
	if err != nil {
		return domain.DirectorView{}, wrapStoreError("delete director", err)
	}

	s.cached.invalidate(ctx, id)
	s.logger.Debug("director deleted", zap.String("id", id))
	return domain.NewDirectorView(director), nil
}

// invalidateExpandedMovies drops the expanded item of every movie directed by
// directorID and all movie listings. Listings are dropped even when the
// movie lookup fails.
func (s *DirectorsService) invalidateExpandedMovies(ctx context.Context, directorID string) {
	defer s.cached.cache.DeleteByPrefix(ctx, movieKeys.listPrefix())

	filter := domain.MovieFilter{DirectorID: &directorID}
	q := domain.ListQuery{Page: 1, Limit: domain.MaxLimit, SortBy: domain.DefaultSortBy, Order: domain.SortAsc}
	var keys []string
	for {
		movies, err := s.movies.FindPage(ctx, q, filter)
		if err != nil {
			s.logger.Warn("cannot resolve movies of updated director", zap.String("id", directorID), zap.Error(err))
			break
		}
		for _, m := range movies {
			keys = append(keys, movieKeys.item(m.ID, true))
		}
		if len(movies) < q.Limit {
			break
		}
		q.Page++
	}
	if len(keys) > 0 {
		s.cached.cache.Delete(ctx, keys...)
	}
}
