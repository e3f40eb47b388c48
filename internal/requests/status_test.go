package requests

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsClaimable(t *testing.T) {
	assert.True(t, StatusOpen.IsClaimable())
	assert.False(t, StatusClaimed.IsClaimable())
	assert.False(t, StatusCarAssigned.IsClaimable())
	assert.False(t, StatusFulfilled.IsClaimable())
	assert.False(t, StatusExpired.IsClaimable())
	assert.False(t, StatusCancelled.IsClaimable())
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusOpen.IsTerminal())
	assert.False(t, StatusClaimed.IsTerminal())
	assert.False(t, StatusCarAssigned.IsTerminal())
	assert.True(t, StatusFulfilled.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestStatusTransitions(t *testing.T) {
	// Forward path
	assert.True(t, StatusOpen.CanTransitionTo(StatusClaimed))
	assert.True(t, StatusClaimed.CanTransitionTo(StatusCarAssigned))
	assert.True(t, StatusCarAssigned.CanTransitionTo(StatusFulfilled))

	// Reverts on withdraw and lease expiry
	assert.True(t, StatusClaimed.CanTransitionTo(StatusOpen))
	assert.True(t, StatusCarAssigned.CanTransitionTo(StatusOpen))
	assert.True(t, StatusClaimed.CanTransitionTo(StatusExpired))

	// Administrative cancel from any pre-terminal status
	assert.True(t, StatusOpen.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusClaimed.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusCarAssigned.CanTransitionTo(StatusCancelled))

	// Terminal statuses stay terminal
	assert.False(t, StatusFulfilled.CanTransitionTo(StatusOpen))
	assert.False(t, StatusExpired.CanTransitionTo(StatusClaimed))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusOpen))

	// OPEN never skips CLAIMED
	assert.False(t, StatusOpen.CanTransitionTo(StatusCarAssigned))
	assert.False(t, StatusOpen.CanTransitionTo(StatusFulfilled))
}
