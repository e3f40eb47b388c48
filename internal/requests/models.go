package requests

import (
	"time"

	"github.com/google/uuid"
)

// ReservationRequest is a guest demand row that hosts compete to claim.
// Status is mutated only through the claim engine's conditional transitions;
// intake creates rows OPEN and admin cancel is the only out-of-band write.
type ReservationRequest struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	RequestCode string    `json:"request_code" gorm:"not null;uniqueIndex;size:20"`
	Status      Status    `json:"status" gorm:"type:varchar(20);default:'OPEN';index"`

	// Demand attributes
	VehicleType    string    `json:"vehicle_type" gorm:"not null;size:50"`
	MinSeats       int       `json:"min_seats" gorm:"not null;default:1;check:min_seats > 0"`
	PickupLocation string    `json:"pickup_location" gorm:"size:255"`
	PickupAt       time.Time `json:"pickup_at" gorm:"not null"`
	ReturnAt       time.Time `json:"return_at" gorm:"not null"`
	GuestID        uuid.UUID `json:"guest_id" gorm:"type:uuid;not null"`
	PriorityTier   string    `json:"priority_tier" gorm:"type:varchar(20);default:'STANDARD'"`
	IsNegotiable   bool      `json:"is_negotiable" gorm:"default:false"`
	OfferedRate    float64   `json:"offered_rate" gorm:"not null;check:offered_rate >= 0"`
	TargetRate     float64   `json:"target_rate" gorm:"check:target_rate >= 0"`

	// Counters maintained through the same atomic path as status transitions
	ViewCount     int `json:"view_count" gorm:"default:0;check:view_count >= 0"`
	ClaimAttempts int `json:"claim_attempts" gorm:"default:0;check:claim_attempts >= 0"`

	// Absolute deadline after which an unclaimed request is abandoned
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// ToResponse converts a ReservationRequest to its API shape
func (r *ReservationRequest) ToResponse() RequestResponse {
	return RequestResponse{
		ID:             r.ID.String(),
		RequestCode:    r.RequestCode,
		Status:         r.Status,
		VehicleType:    r.VehicleType,
		MinSeats:       r.MinSeats,
		PickupLocation: r.PickupLocation,
		PickupAt:       r.PickupAt,
		ReturnAt:       r.ReturnAt,
		PriorityTier:   r.PriorityTier,
		IsNegotiable:   r.IsNegotiable,
		OfferedRate:    r.OfferedRate,
		TargetRate:     r.TargetRate,
		ViewCount:      r.ViewCount,
		ClaimAttempts:  r.ClaimAttempts,
		ExpiresAt:      r.ExpiresAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// TableName specifies the table name for GORM
func (ReservationRequest) TableName() string {
	return "reservation_requests"
}
