package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransitionKind names the claim-engine transitions downstream consumers care
// about (email, dashboard refresh, analytics).
type TransitionKind string

const (
	TransitionClaimWon         TransitionKind = "CLAIM_WON"
	TransitionClaimRejected    TransitionKind = "CLAIM_REJECTED"
	TransitionCarAssigned      TransitionKind = "CAR_ASSIGNED"
	TransitionClaimCompleted   TransitionKind = "CLAIM_COMPLETED"
	TransitionClaimWithdrawn   TransitionKind = "CLAIM_WITHDRAWN"
	TransitionLeaseExpired     TransitionKind = "LEASE_EXPIRED"
	TransitionRequestExpired   TransitionKind = "REQUEST_EXPIRED"
	TransitionRequestCancelled TransitionKind = "REQUEST_CANCELLED"
)

// ClaimEvent is the payload published on every successful claim transition.
// FromStatus/ToStatus carry the statuses of whichever record transitioned:
// claim statuses for claim transitions, request statuses for request-level
// events like REQUEST_EXPIRED.
type ClaimEvent struct {
	ID         uuid.UUID      `json:"id"`
	Kind       TransitionKind `json:"kind"`
	RequestID  uuid.UUID      `json:"request_id"`
	ClaimID    *uuid.UUID     `json:"claim_id,omitempty"`
	HostID     *uuid.UUID     `json:"host_id,omitempty"`
	FromStatus string         `json:"from_status"`
	ToStatus   string         `json:"to_status"`
	Reason     string         `json:"reason,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewClaimEvent builds an event with identity and timestamp filled in
func NewClaimEvent(kind TransitionKind, requestID uuid.UUID, fromStatus, toStatus string) *ClaimEvent {
	return &ClaimEvent{
		ID:         uuid.New(),
		Kind:       kind,
		RequestID:  requestID,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		OccurredAt: time.Now(),
	}
}

// WithClaim attaches the claim involved in the transition
func (e *ClaimEvent) WithClaim(claimID uuid.UUID) *ClaimEvent {
	e.ClaimID = &claimID
	return e
}

// WithHost attaches the acting host
func (e *ClaimEvent) WithHost(hostID uuid.UUID) *ClaimEvent {
	e.HostID = &hostID
	return e
}

// WithReason attaches a rejection or expiry reason
func (e *ClaimEvent) WithReason(reason string) *ClaimEvent {
	e.Reason = reason
	return e
}

// GetPartitionKey routes all events for one request to the same partition so
// consumers observe its transitions in order.
func (e *ClaimEvent) GetPartitionKey() string {
	return e.RequestID.String()
}

func (e *ClaimEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
