package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsLive(t *testing.T) {
	assert.True(t, StatusPendingCar.IsLive())
	assert.True(t, StatusCarSelected.IsLive())
	assert.False(t, StatusCompleted.IsLive())
	assert.False(t, StatusExpired.IsLive())
	assert.False(t, StatusWithdrawn.IsLive())
}

func TestStatusIsTerminal(t *testing.T) {
	for _, s := range LiveStatuses {
		assert.False(t, s.IsTerminal(), "live status %s must not be terminal", s)
	}
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.True(t, StatusWithdrawn.IsTerminal())
}

func TestStatusTransitions(t *testing.T) {
	// Forward path
	assert.True(t, StatusPendingCar.CanTransitionTo(StatusCarSelected))
	assert.True(t, StatusCarSelected.CanTransitionTo(StatusCompleted))

	// Releases
	assert.True(t, StatusPendingCar.CanTransitionTo(StatusWithdrawn))
	assert.True(t, StatusPendingCar.CanTransitionTo(StatusExpired))
	assert.True(t, StatusCarSelected.CanTransitionTo(StatusWithdrawn))
	assert.True(t, StatusCarSelected.CanTransitionTo(StatusExpired))

	// No shortcuts, no resurrection
	assert.False(t, StatusPendingCar.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusExpired.CanTransitionTo(StatusPendingCar))
	assert.False(t, StatusWithdrawn.CanTransitionTo(StatusCarSelected))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusExpired))
}

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusPendingCar.IsValid())
	assert.False(t, Status("BOOKED").IsValid())
	assert.False(t, Status("").IsValid())
}
