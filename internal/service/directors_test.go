package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

func TestDirectorsCreateAndGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	created, err := f.directors.Create(ctx, domain.DirectorInput{
		FirstName: "  Francis ",
		LastName:  strPtr(" Coppola "),
		BirthDate: strPtr("1939-04-07"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Francis", created.FirstName)
	require.NotNil(t, created.LastName)
	assert.Equal(t, "Coppola", *created.LastName)
	require.NotNil(t, created.BirthDate)
	assert.Equal(t, 1939, created.BirthDate.Year())
	assert.True(t, f.backend.has("directors:"+created.ID))

	got, err := f.directors.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Zero(t, f.store.callCount("directors.FindByID"))
}

func TestDirectorsCreateValidation(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.directors.Create(context.Background(), domain.DirectorInput{FirstName: " "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.directors.Create(context.Background(), domain.DirectorInput{FirstName: "Francis", BirthDate: strPtr("april")})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.store.callCount("directors.Create"))
}

func TestDirectorsGetLoadsOnceThenHits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	director := f.createDirector(t, "Sofia")
	f.backend.data = map[string][]byte{}

	for i := 0; i < 3; i++ {
		got, err := f.directors.Get(ctx, director.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sofia", got.FirstName)
	}
	assert.Equal(t, 1, f.store.callCount("directors.FindByID"))

	_, err := f.directors.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectorsListKeyCarriesNoExpandFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.createDirector(t, "Francis")

	page, err := f.directors.List(ctx, domain.ListQuery{Expand: true})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, domain.PageMeta{Page: 1, Limit: 20, Total: 1, TotalPages: 1}, page.Meta)
	assert.True(t, f.backend.has("directors:list:page=1:limit=20:sortBy=createdAt:order=desc"))

	_, err = f.directors.List(ctx, domain.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.callCount("directors.FindPage"))

	_, err = f.directors.List(ctx, domain.ListQuery{SortBy: "title"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDirectorsUpdateInvalidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	director := f.createDirector(t, "Francis")
	_, err := f.directors.List(ctx, domain.ListQuery{})
	require.NoError(t, err)

	updated, err := f.directors.Update(ctx, director.ID, domain.DirectorPatch{Bio: strPtr(" The Godfather ")})
	require.NoError(t, err)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "The Godfather", *updated.Bio)
	assert.Empty(t, f.backend.keys())

	got, err := f.directors.Get(ctx, director.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Bio)
	assert.Equal(t, "The Godfather", *got.Bio)

	_, err = f.directors.Update(ctx, "missing", domain.DirectorPatch{Bio: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.directors.Update(ctx, director.ID, domain.DirectorPatch{FirstName: strPtr("  ")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDirectorsUpdateRefreshesExpandedMovies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	francis := f.createDirector(t, "Francis")
	other := f.createDirector(t, "Agnes")
	movie := f.createMovie(t, "Apocalypse Now", francis.ID)
	unrelated := f.createMovie(t, "Cleo from 5 to 7", other.ID)

	_, err := f.movies.Get(ctx, movie.ID, true)
	require.NoError(t, err)
	_, err = f.movies.Get(ctx, movie.ID, false)
	require.NoError(t, err)
	_, err = f.movies.Get(ctx, unrelated.ID, true)
	require.NoError(t, err)
	_, err = f.movies.List(ctx, domain.ListQuery{Expand: true}, domain.MovieFilter{})
	require.NoError(t, err)

	_, err = f.directors.Update(ctx, francis.ID, domain.DirectorPatch{FirstName: strPtr("Francis Ford")})
	require.NoError(t, err)

	keys := f.backend.keys()
	assert.NotContains(t, keys, "movies:"+movie.ID+":expand=true")
	assert.Contains(t, keys, "movies:"+movie.ID+":expand=false")
	assert.Contains(t, keys, "movies:"+unrelated.ID+":expand=true")
	for _, k := range keys {
		assert.NotContains(t, k, "movies:list:")
	}

	got, err := f.movies.Get(ctx, movie.ID, true)
	require.NoError(t, err)
	require.NotNil(t, got.Director)
	assert.Equal(t, "Francis Ford", got.Director.FirstName)

	page, err := f.movies.List(ctx, domain.ListQuery{Expand: true}, domain.MovieFilter{})
	require.NoError(t, err)
	for _, m := range page.Data {
		require.NotNil(t, m.Director)
		if m.ID == movie.ID {
			assert.Equal(t, "Francis Ford", m.Director.FirstName)
		}
	}
}

func TestDirectorsDeleteGuardedByReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	director := f.createDirector(t, "Francis")
	first := f.createMovie(t, "Apocalypse Now", director.ID)
	second := f.createMovie(t, "The Conversation", director.ID)

	_, err := f.directors.Delete(ctx, director.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Zero(t, f.store.callCount("directors.Delete"))

	stillThere, err := f.directors.Get(ctx, director.ID)
	require.NoError(t, err)
	assert.Equal(t, director.ID, stillThere.ID)
	for _, id := range []string{first.ID, second.ID} {
		_, err := f.movies.Get(ctx, id, false)
		require.NoError(t, err)
	}

	_, err = f.movies.Delete(ctx, first.ID)
	require.NoError(t, err)
	_, err = f.directors.Delete(ctx, director.ID)
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.movies.Delete(ctx, second.ID)
	require.NoError(t, err)
	deleted, err := f.directors.Delete(ctx, director.ID)
	require.NoError(t, err)
	assert.Equal(t, director.ID, deleted.ID)
	assert.False(t, f.backend.has("directors:"+director.ID))

	_, err = f.directors.Get(ctx, director.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.directors.Delete(ctx, director.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectorsWithCacheDisabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	director := f.createDirector(t, "Francis")

	for i := 0; i < 2; i++ {
		_, err := f.directors.Get(ctx, director.ID)
		require.NoError(t, err)
	}
	_, err := f.directors.List(ctx, domain.ListQuery{})
	require.NoError(t, err)
	_, err = f.directors.Delete(ctx, director.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, f.store.callCount("directors.FindByID"))
	assert.Zero(t, f.backend.callCount())
}

func TestNilCacheDisablesCaching(t *testing.T) {
	st := newMemStore()
	svc := NewDirectorsService(memDirectors{st}, memMovies{st}, nil, Options{})
	created, err := svc.Create(context.Background(), domain.DirectorInput{FirstName: "Francis"})
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.callCount("directors.FindByID"))
}
