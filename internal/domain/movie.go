package domain

import "time"

// Movie is a catalog entry. DirectorID is only checked by the service layer;
// the store keeps no foreign key. Director is set when the repository
// resolved the reference.
type Movie struct {
	ID          string
	Title       string
	Description *string
	ReleaseDate *time.Time
	Genre       *string
	Rating      *float64
	ImdbID      *string
	DirectorID  string
	Director    *Director
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MovieInput is the payload accepted when creating a movie.
type MovieInput struct {
	Title       string   `json:"title" validate:"required"`
	Description *string  `json:"description"`
	ReleaseDate *string  `json:"releaseDate" validate:"omitnil,isodate"`
	Genre       *string  `json:"genre"`
	Rating      *float64 `json:"rating" validate:"omitnil,gte=0,lte=10"`
	ImdbID      *string  `json:"imdbId" validate:"omitnil,imdbid"`
	DirectorID  string   `json:"directorId" validate:"required"`
}

// Normalize trims text fields and rounds the rating in place.
func (in *MovieInput) Normalize() {
	in.Title = trim(in.Title)
	in.Description = trimPtr(in.Description)
	in.ReleaseDate = trimPtr(in.ReleaseDate)
	in.Genre = trimPtr(in.Genre)
	in.ImdbID = trimPtr(in.ImdbID)
	in.DirectorID = trim(in.DirectorID)
	in.Rating = roundPtr(in.Rating)
}

// MoviePatch is a partial update; nil fields are left untouched.
type MoviePatch struct {
	Title       *string  `json:"title" validate:"omitnil,min=1"`
	Description *string  `json:"description"`
	ReleaseDate *string  `json:"releaseDate" validate:"omitnil,isodate"`
	Genre       *string  `json:"genre"`
	Rating      *float64 `json:"rating" validate:"omitnil,gte=0,lte=10"`
	ImdbID      *string  `json:"imdbId" validate:"omitnil,imdbid"`
	DirectorID  *string  `json:"directorId" validate:"omitnil,min=1"`
}

func (p *MoviePatch) Normalize() {
	p.Title = trimPtr(p.Title)
	p.Description = trimPtr(p.Description)
	p.ReleaseDate = trimPtr(p.ReleaseDate)
	p.Genre = trimPtr(p.Genre)
	p.ImdbID = trimPtr(p.ImdbID)
	p.DirectorID = trimPtr(p.DirectorID)
	p.Rating = roundPtr(p.Rating)
}

// MovieFilter narrows a movie listing. Filtered listings are never cached.
type MovieFilter struct {
	Genre      *string
	DirectorID *string
}

// IsEmpty reports whether no filter is set.
func (f MovieFilter) IsEmpty() bool {
	return f.Genre == nil && f.DirectorID == nil
}

// MovieView is the normalized response shape of a movie. When the director
// was expanded, DirectorID still carries the raw reference and Director holds
// the nested view.
type MovieView struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	ReleaseDate *time.Time    `json:"releaseDate,omitempty"`
	Genre       *string       `json:"genre,omitempty"`
	Rating      *float64      `json:"rating,omitempty"`
	ImdbID      *string       `json:"imdbId,omitempty"`
	DirectorID  string        `json:"directorId"`
	Director    *DirectorView `json:"director,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// NewMovieView converts a stored movie into its response shape.
func NewMovieView(m Movie, expand bool) MovieView {
	view := MovieView{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		ReleaseDate: m.ReleaseDate,
		Genre:       m.Genre,
		Rating:      m.Rating,
		ImdbID:      m.ImdbID,
		DirectorID:  m.DirectorID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if expand && m.Director != nil {
		director := NewDirectorView(*m.Director)
		view.DirectorID = director.ID
		view.Director = &director
	}
	return view
}
