package claims

// attempt-claim payload; offered rate defaults to the request's rate when omitted
type AttemptClaimRequest struct {
	RequestID   string   `json:"request_id" binding:"required,uuid"`
	OfferedRate *float64 `json:"offered_rate" binding:"omitempty,rentalrate"`
}

// vehicle-assignment payload
type AssignVehicleRequest struct {
	CarID string `json:"car_id" binding:"required,uuid"`
}
