package claims

import "time"

// ClaimResponse is the API shape of a claim
type ClaimResponse struct {
	ID             string     `json:"id"`
	RequestID      string     `json:"request_id"`
	HostID         string     `json:"host_id"`
	Status         Status     `json:"status"`
	OfferedRate    float64    `json:"offered_rate"`
	CarID          *string    `json:"car_id,omitempty"`
	ClaimedAt      time.Time  `json:"claimed_at"`
	ClaimExpiresAt time.Time  `json:"claim_expires_at"`
	CarAssignedAt  *time.Time `json:"car_assigned_at,omitempty"`
	CompletionDue  *time.Time `json:"completion_due_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ClaimRejectedResponse is returned when a claim operation loses on a domain
// condition (race lost, lease elapsed, terminal request).
type ClaimRejectedResponse struct {
	Reason  RejectReason `json:"reason"`
	Message string       `json:"message"`
}

// SweepResult summarizes one sweeper pass
type SweepResult struct {
	LeasesReclaimed int `json:"leases_reclaimed"`
	RequestsExpired int `json:"requests_expired"`
}
