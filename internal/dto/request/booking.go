package request

type BookingRequest struct {
	ScreeningID   string `json:"screening_id" validate:"required,uuid"`
	CustomerName  string `json:"customer_name" validate:"required,min=1,max=100"`
	CustomerEmail string `json:"customer_email" validate:"required,email,max=254"`
	CustomerPhone string `json:"customer_phone" validate:"required,min=1,max=20"`
	// Seats is checked by the booking service, not by tags.
	Seats  int     `json:"seats"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed"`
}

type BookingUpdateRequest struct {
	CustomerName  *string `json:"customer_name,omitempty" validate:"omitempty,min=1,max=100"`
	CustomerEmail *string `json:"customer_email,omitempty" validate:"omitempty,email,max=254"`
	CustomerPhone *string `json:"customer_phone,omitempty" validate:"omitempty,min=1,max=20"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled"`
}

type BookingListRequest struct {
	PaginatedRequest
	ScreeningID *string `json:"screening_id,omitempty" validate:"omitempty,uuid"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled"`
}
