package domain

import "math"

// Listing defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultSortBy = "createdAt"
)

// Sortable fields per entity kind.
var (
	MovieSortFields    = []string{"title", "rating", "releaseDate", "createdAt"}
	DirectorSortFields = []string{"firstName", "lastName", "createdAt"}
)

// ListQuery carries pagination, sorting, and the expand flag of a listing.
type ListQuery struct {
	Page   int
	Limit  int
	SortBy string
	Order  string
	Expand bool
}

// WithDefaults fills unset fields and clamps the limit.
func (q ListQuery) WithDefaults() ListQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	} else if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if q.Order != SortAsc {
		q.Order = SortDesc
	}
	return q
}

// Skip returns the number of rows preceding the requested page.
func (q ListQuery) Skip() int {
	return (q.Page - 1) * q.Limit
}

// PageMeta describes where a page sits in the full result set.
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Page is one page of a listing.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// NewPage assembles a page; totalPages is ceil(total/limit).
func NewPage[T any](data []T, q ListQuery, total int64) Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if q.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(q.Limit)))
	}
	return Page[T]{
		Data: data,
		Meta: PageMeta{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}
