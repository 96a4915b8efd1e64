package httpserver

import (
	"net/url"
	"testing"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

func FuzzBuildListQuery(f *testing.F) {
	seeds := []string{
		"page=2&limit=10&sortBy=title&order=asc&populate=true",
		"genre=War&directorId=2f1c0a36-4c53-4d0e-9d0a-8d1b5f3a9e11",
		"limit=200",
		"page=-1",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		q, err := buildListQuery(values, domain.MovieSortFields)
		if err == nil {
			if q.Page < 1 || q.Limit < 1 || q.Limit > domain.MaxLimit {
				t.Fatalf("out of range query accepted: %+v", q)
			}
			if q.Order != domain.SortAsc && q.Order != domain.SortDesc {
				t.Fatalf("unexpected order %q", q.Order)
			}
		}
		_, _ = buildMovieFilter(values)
	})
}
