package domain

import "time"

// Director is a person credited with directing movies.
type Director struct {
	ID        string
	FirstName string
	LastName  *string
	BirthDate *time.Time
	Bio       *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DirectorInput is the payload accepted when creating a director.
type DirectorInput struct {
	FirstName string  `json:"firstName" validate:"required"`
	LastName  *string `json:"lastName"`
	BirthDate *string `json:"birthDate" validate:"omitnil,isodate"`
	Bio       *string `json:"bio"`
}

// Normalize trims free-text fields in place.
func (in *DirectorInput) Normalize() {
	in.FirstName = trim(in.FirstName)
	in.LastName = trimPtr(in.LastName)
	in.Bio = trimPtr(in.Bio)
	in.BirthDate = trimPtr(in.BirthDate)
}

// DirectorPatch is a partial update; nil fields are left untouched.
type DirectorPatch struct {
	FirstName *string `json:"firstName" validate:"omitnil,min=1"`
	LastName  *string `json:"lastName"`
	BirthDate *string `json:"birthDate" validate:"omitnil,isodate"`
	Bio       *string `json:"bio"`
}

func (p *DirectorPatch) Normalize() {
	p.FirstName = trimPtr(p.FirstName)
	p.LastName = trimPtr(p.LastName)
	p.Bio = trimPtr(p.Bio)
	p.BirthDate = trimPtr(p.BirthDate)
}

// DirectorView is the normalized response shape of a director.
type DirectorView struct {
	ID        string     `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  *string    `json:"lastName,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	Bio       *string    `json:"bio,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewDirectorView converts a stored director into its response shape.
func NewDirectorView(d Director) DirectorView {
	return DirectorView{
		ID:        d.ID,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		BirthDate: d.BirthDate,
		Bio:       d.Bio,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
