package request

type FilmRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=200"`
	Description     string `json:"description" validate:"max=5000"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0,lte=1440"`
	ReleaseYear     int    `json:"release_year" validate:"required,gte=1888"`
	Genre           string `json:"genre" validate:"required,min=1,max=100"`
}

type FilmUpdateRequest struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	DurationMinutes *int    `json:"duration_minutes,omitempty" validate:"omitempty,gt=0,lte=1440"`
	ReleaseYear     *int    `json:"release_year,omitempty" validate:"omitempty,gte=1888"`
	Genre           *string `json:"genre,omitempty" validate:"omitempty,min=1,max=100"`
}

type FilmListRequest struct {
	PaginatedRequest
	// Genre matches case-insensitively as a substring.
	Genre *string `json:"genre,omitempty"`
}
