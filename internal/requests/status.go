package requests

// Status is the reservation request lifecycle state. A request holds exactly
// one status at any instant; FULFILLED, EXPIRED and CANCELLED are terminal.
type Status string

const (
	StatusOpen        Status = "OPEN"
	StatusClaimed     Status = "CLAIMED"
	StatusCarAssigned Status = "CAR_ASSIGNED"
	StatusFulfilled   Status = "FULFILLED"
	StatusExpired     Status = "EXPIRED"
	StatusCancelled   Status = "CANCELLED"
)

// IsValid checks if the status is one of the defined values
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusClaimed, StatusCarAssigned, StatusFulfilled, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFulfilled, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// IsClaimable reports whether a claim attempt may succeed against this status.
// Only OPEN requests are claimable; the expiry deadline is checked separately.
func (s Status) IsClaimable() bool {
	return s == StatusOpen
}

// validTransitions mirrors the request side of the claim state machine.
// CLAIMED and CAR_ASSIGNED revert to OPEN on withdraw or lease expiry, or to
// EXPIRED when the request's own deadline has also passed.
var validTransitions = map[Status][]Status{
	StatusOpen:        {StatusClaimed, StatusExpired, StatusCancelled},
	StatusClaimed:     {StatusCarAssigned, StatusOpen, StatusExpired, StatusCancelled},
	StatusCarAssigned: {StatusFulfilled, StatusOpen, StatusExpired, StatusCancelled},
	StatusFulfilled:   {},
	StatusExpired:     {},
	StatusCancelled:   {},
}

// CanTransitionTo checks whether the transition s -> target is legal
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
