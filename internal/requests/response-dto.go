package requests

import "time"

// RequestResponse is the API shape of a reservation request. Guest identity is
// deliberately omitted; hosts see demand attributes only.
type RequestResponse struct {
	ID             string    `json:"id"`
	RequestCode    string    `json:"request_code"`
	Status         Status    `json:"status"`
	VehicleType    string    `json:"vehicle_type"`
	MinSeats       int       `json:"min_seats"`
	PickupLocation string    `json:"pickup_location"`
	PickupAt       time.Time `json:"pickup_at"`
	ReturnAt       time.Time `json:"return_at"`
	PriorityTier   string    `json:"priority_tier"`
	IsNegotiable   bool      `json:"is_negotiable"`
	OfferedRate    float64   `json:"offered_rate"`
	TargetRate     float64   `json:"target_rate"`
	ViewCount      int       `json:"view_count"`
	ClaimAttempts  int       `json:"claim_attempts"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type PaginatedRequests struct {
	Requests   []RequestResponse `json:"requests"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}
