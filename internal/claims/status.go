package claims

// Status is the claim lifecycle state. PENDING_CAR and CAR_SELECTED are the
// live statuses: a claim in either holds the exclusive lease on its request.
type Status string

const (
	StatusPendingCar  Status = "PENDING_CAR"
	StatusCarSelected Status = "CAR_SELECTED"
	StatusCompleted   Status = "COMPLETED"
	StatusExpired     Status = "EXPIRED"
	StatusWithdrawn   Status = "WITHDRAWN"
)

// IsValid checks if the status is one of the defined values
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingCar, StatusCarSelected, StatusCompleted, StatusExpired, StatusWithdrawn:
		return true
	}
	return false
}

// IsLive reports whether the claim currently holds the lease
func (s Status) IsLive() bool {
	return s == StatusPendingCar || s == StatusCarSelected
}

// IsTerminal reports whether no further transition is permitted
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusExpired, StatusWithdrawn:
		return true
	}
	return false
}

// LiveStatuses is the set used in conditional WHERE clauses and the partial
// unique index guarding the single-live-claim invariant.
var LiveStatuses = []Status{StatusPendingCar, StatusCarSelected}

var validTransitions = map[Status][]Status{
	StatusPendingCar:  {StatusCarSelected, StatusWithdrawn, StatusExpired},
	StatusCarSelected: {StatusCompleted, StatusWithdrawn, StatusExpired},
	StatusCompleted:   {},
	StatusExpired:     {},
	StatusWithdrawn:   {},
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
