package claims

import (
	"time"

	"github.com/google/uuid"
)

// RequestClaim is one host's exclusive lease attempt on a reservation request.
// Rows are never deleted: EXPIRED and WITHDRAWN claims stay as the audit trail
// behind the request's claim_attempts counter.
type RequestClaim struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	RequestID uuid.UUID `json:"request_id" gorm:"type:uuid;not null;index"`
	HostID    uuid.UUID `json:"host_id" gorm:"type:uuid;not null;index"`
	Status    Status    `json:"status" gorm:"type:varchar(20);not null;index"`

	OfferedRate float64    `json:"offered_rate" gorm:"not null;check:offered_rate >= 0"`
	CarID       *uuid.UUID `json:"car_id" gorm:"type:uuid"`

	// Lease window. ClaimExpiresAt is set at creation and never extended
	// implicitly; CompletionDueAt is set on vehicle assignment.
	ClaimedAt       time.Time  `json:"claimed_at" gorm:"not null"`
	ClaimExpiresAt  time.Time  `json:"claim_expires_at" gorm:"not null;index"`
	CarAssignedAt   *time.Time `json:"car_assigned_at"`
	CompletionDueAt *time.Time `json:"completion_due_at" gorm:"index"`
	CompletedAt     *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// ToResponse converts a RequestClaim to its API shape
func (c *RequestClaim) ToResponse() ClaimResponse {
	resp := ClaimResponse{
		ID:             c.ID.String(),
		RequestID:      c.RequestID.String(),
		HostID:         c.HostID.String(),
		Status:         c.Status,
		OfferedRate:    c.OfferedRate,
		ClaimedAt:      c.ClaimedAt,
		ClaimExpiresAt: c.ClaimExpiresAt,
		CarAssignedAt:  c.CarAssignedAt,
		CompletionDue:  c.CompletionDueAt,
		CompletedAt:    c.CompletedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.CarID != nil {
		carID := c.CarID.String()
		resp.CarID = &carID
	}
	return resp
}

// TableName specifies the table name for GORM
func (RequestClaim) TableName() string {
	return "request_claims"
}
