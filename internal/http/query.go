package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

var errInvalidID = fmt.Errorf("invalid identifier format")

// parseID reads the {id} path parameter, which must be a UUID.
func parseID(r *http.Request) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", errInvalidID
	}
	return parsed.String(), nil
}

// buildListQuery parses pagination and sorting. Absent parameters take the
// listing defaults; present but malformed ones are rejected.
func buildListQuery(query url.Values, sortFields []string) (domain.ListQuery, error) {
	q := domain.ListQuery{}

	if val := strings.TrimSpace(query.Get("page")); val != "" {
		page, err := strconv.Atoi(val)
		if err != nil || page < 1 {
			return q, fmt.Errorf("page must be a positive integer")
		}
		q.Page = page
	}
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil || limit < 1 || limit > domain.MaxLimit {
			return q, fmt.Errorf("limit must be an integer between 1 and %d", domain.MaxLimit)
		}
		q.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("sortBy")); val != "" {
		if !contains(sortFields, val) {
			return q, fmt.Errorf("sortBy must be one of %s", strings.Join(sortFields, ", "))
		}
		q.SortBy = val
	}
	if val := strings.TrimSpace(query.Get("order")); val != "" {
		val = strings.ToLower(val)
		if val != domain.SortAsc && val != domain.SortDesc {
			return q, fmt.Errorf("order must be asc or desc")
		}
		q.Order = val
	}
	if val := strings.TrimSpace(query.Get("populate")); val != "" {
		expand, err := strconv.ParseBool(val)
		if err != nil {
			return q, fmt.Errorf("populate must be a boolean")
		}
		q.Expand = expand
	}
	return q.WithDefaults(), nil
}

// buildMovieFilter parses the movie listing filters.
func buildMovieFilter(query url.Values) (domain.MovieFilter, error) {
	var filter domain.MovieFilter
	if val := strings.TrimSpace(query.Get("genre")); val != "" {
		filter.Genre = &val
	}
	if val := strings.TrimSpace(query.Get("directorId")); val != "" {
		if _, err := uuid.Parse(val); err != nil {
			return filter, fmt.Errorf("directorId must be a valid identifier")
		}
		filter.DirectorID = &val
	}
	return filter, nil
}

// parseExpand reads the populate flag of single-item routes.
func parseExpand(query url.Values) (bool, error) {
	val := strings.TrimSpace(query.Get("populate"))
	if val == "" {
		return false, nil
	}
	expand, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("populate must be a boolean")
	}
	return expand, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
