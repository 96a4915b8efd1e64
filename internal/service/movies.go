package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

var movieKeys = keyspace{kind: "movies", expandInItemKey: true}

// MoviesService manages movies. Writes check that the referenced director
// exists; IMDb id uniqueness is pre-checked on create and enforced by the
// store on every write.
type MoviesService struct {
	repo      MovieStore
	directors DirectorStore
	cached    cacheAside[domain.MovieView]
	logger    *zap.Logger
}

// NewMoviesService wires the service. A nil cache disables caching.
func NewMoviesService(repo MovieStore, directors DirectorStore, cache Cache, opts Options) *MoviesService {
	opts = opts.withDefaults()
	return &MoviesService{
		repo:      repo,
		directors: directors,
		cached:    cacheAside[domain.MovieView]{cache: cacheOrNop(cache), keys: movieKeys, ttl: opts.ItemTTL},
		logger:    opts.Logger.Named("movies"),
	}
}

// Create stores a movie and returns it shaped by expand. The new item is
// cached and every cached listing dropped.
func (s *MoviesService) Create(ctx context.Context, in domain.MovieInput, expand bool) (domain.MovieView, error) {
	in.Normalize()
	if err := domain.Validate(in); err != nil {
		return domain.MovieView{}, err
	}
	releaseDate, err := domain.ParseDatePtr(in.ReleaseDate)
	if err != nil {
		return domain.MovieView{}, domain.Invalid("releaseDate must be an ISO 8601 date")
	}

	if err := s.requireDirector(ctx, in.DirectorID); err != nil {
		return domain.MovieView{}, err
	}
	if in.ImdbID != nil {
		if err := s.requireFreeImdbID(ctx, *in.ImdbID); err != nil {
			return domain.MovieView{}, err
		}
	}

	created, err := s.repo.Create(ctx, repository.MovieCreateParams{
		Title:       in.Title,
		Description: in.Description,
		ReleaseDate: releaseDate,
		Genre:       in.Genre,
		Rating:      in.Rating,
		ImdbID:      in.ImdbID,
		DirectorID:  in.DirectorID,
	})
	if err != nil {
		return domain.MovieView{}, s.writeError("create movie", in.ImdbID, err)
	}

	movie, err := s.repo.FindByID(ctx, created.ID, expand)
	if err != nil {
		return domain.MovieView{}, wrapStoreError("reload movie", err)
	}

	view := domain.NewMovieView(movie, expand)
	s.cached.store(ctx, movieKeys.item(view.ID, expand), view)
	s.cached.invalidateLists(ctx)
	s.logger.Debug("movie created", zap.String("id", view.ID), zap.Bool("expand", expand))
	return view, nil
}

// Get returns one movie, with its director nested when expand is set.
func (s *MoviesService) Get(ctx context.Context, id string, expand bool) (domain.MovieView, error) {
	return s.cached.read(ctx, movieKeys.item(id, expand), func(ctx context.Context) (domain.MovieView, error) {
		movie, err := s.repo.FindByID(ctx, id, expand)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.MovieView{}, domain.NotFound("movie not found")
		}
		if err != nil {
			return domain.MovieView{}, wrapStoreError("find movie", err)
		}
		s.logger.Debug("movie loaded from store", zap.String("id", id), zap.Bool("expand", expand))
		return domain.NewMovieView(movie, expand), nil
	})
}

// List returns one page of movies. Filtered listings always go to the store.
func (s *MoviesService) List(ctx context.Context, q domain.ListQuery, filter domain.MovieFilter) (domain.Page[domain.MovieView], error) {
	q = q.WithDefaults()
	if err := validateSort(q, domain.MovieSortFields); err != nil {
		return domain.Page[domain.MovieView]{}, err
	}

	key := ""
	if filter.IsEmpty() {
		key = movieKeys.list(q)
	}

	fetch := func(ctx context.Context) ([]domain.MovieView, error) {
		movies, err := s.repo.FindPage(ctx, q, filter)
		if err != nil {
			return nil, wrapStoreError("list movies", err)
		}
		views := make([]domain.MovieView, 0, len(movies))
		for _, m := range movies {
			views = append(views, domain.NewMovieView(m, q.Expand))
		}
		return views, nil
	}
	count := func(ctx context.Context) (int64, error) {
		total, err := s.repo.Count(ctx, filter)
		if err != nil {
			return 0, wrapStoreError("count movies", err)
		}
		return total, nil
	}
	return s.cached.readPage(ctx, key, q, fetch, count)
}

// Update applies a partial update. The director reference is only checked
// when the patch changes it. Both expand variants of the item are dropped.
func (s *MoviesService) Update(ctx context.Context, id string, patch domain.MoviePatch, expand bool) (domain.MovieView, error) {
	patch.Normalize()
	if err := domain.Validate(patch); err != nil {
		return domain.MovieView{}, err
	}
	releaseDate, err := domain.ParseDatePtr(patch.ReleaseDate)
	if err != nil {
		return domain.MovieView{}, domain.Invalid("releaseDate must be an ISO 8601 date")
	}
	if patch.DirectorID != nil {
		if err := s.requireDirector(ctx, *patch.DirectorID); err != nil {
			return domain.MovieView{}, err
		}
	}

	movie, err := s.repo.Update(ctx, id, repository.MovieUpdateParams{
		Title:       patch.Title,
		Description: patch.Description,
		ReleaseDate: releaseDate,
		Genre:       patch.Genre,
		Rating:      patch.Rating,
		ImdbID:      patch.ImdbID,
		DirectorID:  patch.DirectorID,
	}, expand)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.MovieView{}, domain.NotFound("movie not found")
	}
	if err != nil {
		return domain.MovieView{}, s.writeError("update movie", patch.ImdbID, err)
	}

	s.cached.invalidate(ctx, id)
	s.logger.Debug("movie updated", zap.String("id", id))
	return domain.NewMovieView(movie, expand), nil
}

// Delete removes a movie and drops its cache entries.
func (s *MoviesService) Delete(ctx context.Context, id string) (domain.MovieView, error) {
	movie, err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.MovieView{}, domain.NotFound("movie not found")
	}
	if err != nil {
		return domain.MovieView{}, wrapStoreError("delete movie", err)
	}

	s.cached.invalidate(ctx, id)
	s.logger.Debug("movie deleted", zap.String("id", id))
	return domain.NewMovieView(movie, false), nil
}

// requireDirector reports a validation error when directorID does not resolve.
func (s *MoviesService) requireDirector(ctx context.Context, directorID string) error {
	_, err := s.directors.FindByID(ctx, directorID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Invalid("director with ID '%s' not found", directorID)
	}
	if err != nil {
		return wrapStoreError("find director", err)
	}
	return nil
}

func (s *MoviesService) requireFreeImdbID(ctx context.Context, imdbID string) error {
	_, err := s.repo.FindByImdbID(ctx, imdbID)
	if err == nil {
		return imdbConflict(imdbID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return wrapStoreError("find movie by imdb id", err)
}

// writeError maps a late unique violation to the same conflict the
// pre-check reports.
func (s *MoviesService) writeError(op string, imdbID *string, err error) error {
	if errors.Is(err, repository.ErrUniqueViolation) {
		id := ""
		if imdbID != nil {
			id = *imdbID
		}
		s.logger.Debug("unique violation from store", zap.String("op", op), zap.Error(err))
		return imdbConflict(id)
	}
	return wrapStoreError(op, err)
}

func imdbConflict(imdbID string) error {
	return domain.Conflict("movie with IMDb ID '%s' already exists", imdbID)
}
