package claims

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RejectReason classifies domain-expected failures of claim operations. These
// are outcomes, not faults: callers decide retry/UI behavior per reason.
type RejectReason string

const (
	// Another host holds the live claim. Expected and frequent under contention.
	ReasonAlreadyClaimed RejectReason = "ALREADY_CLAIMED"
	// The request's own deadline has passed.
	ReasonRequestExpired RejectReason = "REQUEST_EXPIRED"
	// The request is FULFILLED or CANCELLED; nothing can act on it again.
	ReasonTerminal RejectReason = "TERMINAL"
	// The lease elapsed before the action landed. Re-attempt a fresh claim.
	ReasonLeaseExpired RejectReason = "LEASE_EXPIRED"
	// The claim is not in the status the operation requires.
	ReasonWrongState RejectReason = "WRONG_STATE"
	// The claim belongs to a different host.
	ReasonNotOwner RejectReason = "NOT_OWNER"
)

// ClaimRejectedError is the typed result for domain-expected rejections.
// RequestID names the request the rejection concerns when the repository had
// it loaded, so callers can invalidate and notify without a second read.
type ClaimRejectedError struct {
	Reason    RejectReason
	Message   string
	RequestID uuid.UUID
}

func (e *ClaimRejectedError) Error() string {
	return fmt.Sprintf("claim rejected (%s): %s", e.Reason, e.Message)
}

// NewRejection builds a ClaimRejectedError with a formatted message
func NewRejection(reason RejectReason, format string, args ...interface{}) *ClaimRejectedError {
	return &ClaimRejectedError{
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// ForRequest attributes the rejection to the request it concerns
func (e *ClaimRejectedError) ForRequest(requestID uuid.UUID) *ClaimRejectedError {
	e.RequestID = requestID
	return e
}

// AsRejection extracts a ClaimRejectedError from err if it is one
func AsRejection(err error) (*ClaimRejectedError, bool) {
	var rejected *ClaimRejectedError
	if errors.As(err, &rejected) {
		return rejected, true
	}
	return nil, false
}

// Integrity errors. Unlike rejections these indicate caller misuse or broken
// state and are surfaced as hard errors for operator attention.
var (
	ErrClaimNotFound     = errors.New("claim not found")
	ErrInvalidTransition = errors.New("invalid claim transition")
	// ErrRequestOutOfSync means the request's status did not match the
	// projection its live claim implies. The enclosing transaction rolls back.
	ErrRequestOutOfSync = errors.New("request status out of sync with live claim")
)
