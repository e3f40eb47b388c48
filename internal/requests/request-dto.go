package requests

import "time"

// intake payload creating an OPEN request
type CreateRequestRequest struct {
	VehicleType    string    `json:"vehicle_type" binding:"required,min=2,max=50"`
	MinSeats       int       `json:"min_seats" binding:"required,min=1,max=20"`
	PickupLocation string    `json:"pickup_location" binding:"omitempty,max=255"`
	PickupAt       time.Time `json:"pickup_at" binding:"required"`
	ReturnAt       time.Time `json:"return_at" binding:"required"`
	GuestID        string    `json:"guest_id" binding:"required,uuid"`
	PriorityTier   string    `json:"priority_tier" binding:"omitempty,oneof=STANDARD PRIORITY VIP"`
	IsNegotiable   bool      `json:"is_negotiable"`
	OfferedRate    float64   `json:"offered_rate" binding:"required,rentalrate"`
	TargetRate     float64   `json:"target_rate" binding:"omitempty,rentalrate"`
	ExpiresAt      time.Time `json:"expires_at" binding:"required"`
}

// query parameters for the open-request browse surface
type ListQuery struct {
	Page        int    `form:"page" binding:"omitempty,min=1"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=100"`
	VehicleType string `form:"vehicle_type"`
	Tier        string `form:"tier" binding:"omitempty,oneof=STANDARD PRIORITY VIP"`
}
