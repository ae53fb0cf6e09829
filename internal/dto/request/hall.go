package request

type HallRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Capacity    int    `json:"capacity" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=2000"`
}

// HallUpdateRequest changes a hall. A new capacity applies to screenings
// created afterwards only.
type HallUpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Capacity    *int    `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}
