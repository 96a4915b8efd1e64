package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/movie-catalog/internal/cache"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

// memStore backs both fake repositories so expanded movie reads can resolve
// directors the way the SQL join does.
type memStore struct {
	mu        sync.Mutex
	directors map[string]domain.Director
	movies    map[string]domain.Movie
	clock     time.Time
	calls     map[string]int

	// lateUniqueViolation makes movie creates fail the way a concurrent
	// insert of the same imdb id would.
	lateUniqueViolation bool
}

func newMemStore() *memStore {
	return &memStore{
		directors: map[string]domain.Director{},
		movies:    map[string]domain.Movie{},
		clock:     time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		calls:     map[string]int{},
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) record(op string) {
	s.calls[op]++
}

func (s *memStore) callCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

type memDirectors struct{ *memStore }

func (r memDirectors) Create(_ context.Context, p repository.DirectorCreateParams) (domain.Director, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("directors.Create")
	now := r.tick()
	d := domain.Director{
		ID: uuid.NewString(), FirstName: p.FirstName, LastName: p.LastName,
		BirthDate: p.BirthDate, Bio: p.Bio, CreatedAt: now, UpdatedAt: now,
	}
	r.directors[d.ID] = d
	return d, nil
}

func (r memDirectors) FindByID(_ context.Context, id string) (domain.Director, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("directors.FindByID")
	d, ok := r.directors[id]
	if !ok {
		return domain.Director{}, repository.ErrNotFound
	}
	return d, nil
}

func (r memDirectors) FindPage(_ context.Context, q domain.ListQuery) ([]domain.Director, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("directors.FindPage")
	all := make([]domain.Director, 0, len(r.directors))
	for _, d := range r.directors {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool {
		if q.Order == domain.SortAsc {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, q), nil
}

func (r memDirectors) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("directors.Count")
	return int64(len(r.directors)), nil
}

func (r memDirectors) Update(_ context.Context, id string, p repository.DirectorUpdateParams) (domain.Director, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("directors.Update")
	d, ok := r.directors[id]
	if !ok {
		return domain.Director{}, repository.ErrNotFound
	}
	if p.FirstName != nil {
		d.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		d.LastName = p.LastName
	}
	if p.BirthDate != nil {
		d.BirthDate = p.BirthDate
	}
	if p.Bio != nil {
		d.Bio = p.Bio
	}
	d.UpdatedAt = r.tick()
	r.directors[id] = d
	return d, nil
}

func (r memDirectors) Delete(_ context.Context, id string) (domain.Director, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("directors.Delete")
	d, ok := r.directors[id]
	if !ok {
		return domain.Director{}, repository.ErrNotFound
	}
	delete(r.directors, id)
	return d, nil
}

type memMovies struct{ *memStore }

func (r memMovies) Create(_ context.Context, p repository.MovieCreateParams) (domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("movies.Create")
	if r.lateUniqueViolation {
		return domain.Movie{}, &repository.UniqueViolationError{Field: "imdbId"}
	}
	if p.ImdbID != nil {
		for _, m := range r.movies {
			if m.ImdbID != nil && *m.ImdbID == *p.ImdbID {
				return domain.Movie{}, &repository.UniqueViolationError{Field: "imdbId"}
			}
		}
	}
	now := r.tick()
	m := domain.Movie{
		ID: uuid.NewString(), Title: p.Title, Description: p.Description, ReleaseDate: p.ReleaseDate,
		Genre: p.Genre, Rating: p.Rating, ImdbID: p.ImdbID, DirectorID: p.DirectorID,
		CreatedAt: now, UpdatedAt: now,
	}
	r.movies[m.ID] = m
	return m, nil
}

func (r memMovies) join(m domain.Movie, expand bool) domain.Movie {
	m.Director = nil
	if expand {
		if d, ok := r.directors[m.DirectorID]; ok {
			m.Director = &d
		}
	}
	return m
}

func (r memMovies) FindByID(_ context.Context, id string, expand bool) (domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("movies.FindByID")
	m, ok := r.movies[id]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	return r.join(m, expand), nil
}

func (r memMovies) FindByImdbID(_ context.Context, imdbID string) (domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("movies.FindByImdbID")
	for _, m := range r.movies {
		if m.ImdbID != nil && *m.ImdbID == imdbID {
			return m, nil
		}
	}
	return domain.Movie{}, repository.ErrNotFound
}

func (r memMovies) matching(filter domain.MovieFilter) []domain.Movie {
	out := make([]domain.Movie, 0, len(r.movies))
	for _, m := range r.movies {
		if filter.Genre != nil && (m.Genre == nil || *m.Genre != *filter.Genre) {
			continue
		}
		if filter.DirectorID != nil && m.DirectorID != *filter.DirectorID {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r memMovies) FindPage(_ context.Context, q domain.ListQuery, filter domain.MovieFilter) ([]domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("movies.FindPage")
	all := r.matching(filter)
	sort.Slice(all, func(i, j int) bool {
		if q.Order == domain.SortAsc {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	page := paginate(all, q)
	for i := range page {
		page[i] = r.join(page[i], q.Expand)
	}
	return page, nil
}

func (r memMovies) Count(_ context.Context, filter domain.MovieFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("movies.Count")
	return int64(len(r.matching(filter))), nil
}

func (r memMovies) CountByDirector(_ context.Context, directorID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("movies.CountByDirector")
	return int64(len(r.matching(domain.MovieFilter{DirectorID: &directorID}))), nil
}

func (r memMovies) Update(_ context.Context, id string, p repository.MovieUpdateParams, expand bool) (domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("movies.Update")
	m, ok := r.movies[id]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	if p.ImdbID != nil {
		for otherID, other := range r.movies {
			if otherID != id && other.ImdbID != nil && *other.ImdbID == *p.ImdbID {
				return domain.Movie{}, &repository.UniqueViolationError{Field: "imdbId"}
			}
		}
		m.ImdbID = p.ImdbID
	}
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = p.Description
	}
	if p.ReleaseDate != nil {
		m.ReleaseDate = p.ReleaseDate
	}
	if p.Genre != nil {
		m.Genre = p.Genre
	}
	if p.Rating != nil {
		m.Rating = p.Rating
	}
	if p.DirectorID != nil {
		m.DirectorID = *p.DirectorID
	}
	m.UpdatedAt = r.tick()
	r.movies[id] = m
	return r.join(m, expand), nil
}

func (r memMovies) Delete(_ context.Context, id string) (domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("movies.Delete")
	m, ok := r.movies[id]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	delete(r.movies, id)
	return m, nil
}

func paginate[T any](all []T, q domain.ListQuery) []T {
	q = q.WithDefaults()
	start := q.Skip()
	if start >= len(all) {
		return []T{}
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return append([]T(nil), all[start:end]...)
}

// countingBackend is an in-memory cache.Backend that counts every call.
type countingBackend struct {
	mu    sync.Mutex
	data  map[string][]byte
	calls int
	err   error
}

func newCountingBackend() *countingBackend {
	return &countingBackend{data: map[string][]byte{}}
}

func (b *countingBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return nil, false, b.err
	}
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *countingBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return b.err
	}
	b.data[key] = value
	return nil
}

func (b *countingBackend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return b.err
	}
	for _, k := range keys {
		delete(b.data, k)
	}
	return nil
}

func (b *countingBackend) DeleteByPattern(_ context.Context, pattern string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return 0, b.err
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range b.data {
		if strings.HasPrefix(k, prefix) {
			delete(b.data, k)
			n++
		}
	}
	return n, nil
}

func (b *countingBackend) Ping(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return b.err
}

func (b *countingBackend) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.data[key]
	return ok
}

func (b *countingBackend) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.data))
	for k := range b.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (b *countingBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type fixture struct {
	store     *memStore
	backend   *countingBackend
	directors *DirectorsService
	movies    *MoviesService
}

func newFixture(t *testing.T, cacheEnabled bool) *fixture {
	t.Helper()
	st := newMemStore()
	backend := newCountingBackend()
	gate := cache.NewGate(backend, cache.GateOptions{Enabled: cacheEnabled})
	opts := Options{}
	return &fixture{
		store:     st,
		backend:   backend,
		directors: NewDirectorsService(memDirectors{st}, memMovies{st}, gate, opts),
		movies:    NewMoviesService(memMovies{st}, memDirectors{st}, gate, opts),
	}
}

func (f *fixture) createDirector(t *testing.T, firstName string) domain.DirectorView {
	t.Helper()
	d, err := f.directors.Create(context.Background(), domain.DirectorInput{FirstName: firstName})
	require.NoError(t, err)
	return d
}

func (f *fixture) createMovie(t *testing.T, title, directorID string) domain.MovieView {
	t.Helper()
	m, err := f.movies.Create(context.Background(), domain.MovieInput{Title: title, DirectorID: directorID}, false)
	require.NoError(t, err)
	return m
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

var errBackendDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

func listKey(kind string, q domain.ListQuery) string {
	q = q.WithDefaults()
	key := fmt.Sprintf("%s:list:page=%d:limit=%d:sortBy=%s:order=%s", kind, q.Page, q.Limit, q.SortBy, q.Order)
	if kind == "movies" {
		key += fmt.Sprintf(":expand=%t", q.Expand)
	}
	return key
}
