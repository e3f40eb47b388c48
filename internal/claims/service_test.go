package claims

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/itwhiprentals/itwhip-website-sub025/internal/notifications"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/requests"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClaimRepo mirrors the conditional-transition semantics of the SQL
// repository behind a mutex, so the service can be exercised under real
// goroutine contention without a database. Rejection classification happens
// outside the lock, as it is a separate read in the SQL repository;
// betweenRaceAndClassify lets tests interleave another transition in that gap.
type fakeClaimRepo struct {
	mu                     sync.Mutex
	requests               map[uuid.UUID]*requests.ReservationRequest
	claims                 map[uuid.UUID]*RequestClaim
	betweenRaceAndClassify func()
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{
		requests: make(map[uuid.UUID]*requests.ReservationRequest),
		claims:   make(map[uuid.UUID]*RequestClaim),
	}
}

func (f *fakeClaimRepo) addRequest(request *requests.ReservationRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[request.ID] = request
}

func (f *fakeClaimRepo) requestStatus(id uuid.UUID) requests.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[id].Status
}

func (f *fakeClaimRepo) requestAttempts(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[id].ClaimAttempts
}

func (f *fakeClaimRepo) claimStatus(id uuid.UUID) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claims[id].Status
}

func (f *fakeClaimRepo) setLeaseExpiry(claimID uuid.UUID, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims[claimID].ClaimExpiresAt = at
}

func (f *fakeClaimRepo) setCompletionDue(claimID uuid.UUID, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims[claimID].CompletionDueAt = &at
}

func (f *fakeClaimRepo) AttemptClaim(ctx context.Context, requestID, hostID uuid.UUID, offeredRate *float64, leaseDuration time.Duration) (*RequestClaim, error) {
	now := time.Now()

	f.mu.Lock()
	request, ok := f.requests[requestID]
	if !ok {
		f.mu.Unlock()
		return nil, requests.ErrRequestNotFound
	}

	if request.Status == requests.StatusOpen && request.ExpiresAt.After(now) {
		request.Status = requests.StatusClaimed
		request.ClaimAttempts++

		rate := request.OfferedRate
		if offeredRate != nil {
			rate = *offeredRate
		}
		claim := &RequestClaim{
			ID:             uuid.New(),
			RequestID:      requestID,
			HostID:         hostID,
			Status:         StatusPendingCar,
			OfferedRate:    rate,
			ClaimedAt:      now,
			ClaimExpiresAt: now.Add(leaseDuration),
		}
		f.claims[claim.ID] = claim
		f.mu.Unlock()
		return claim, nil
	}
	f.mu.Unlock()

	if f.betweenRaceAndClassify != nil {
		f.betweenRaceAndClassify()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch request.Status {
	case requests.StatusOpen:
		if request.ExpiresAt.After(now) {
			// Reopened while this attempt was losing its race
			request.ClaimAttempts++
			return nil, NewRejection(ReasonAlreadyClaimed, "request %s was released mid-attempt", request.RequestCode).ForRequest(requestID)
		}
		request.Status = requests.StatusExpired
		return nil, NewRejection(ReasonRequestExpired, "request %s expired", request.RequestCode).ForRequest(requestID)
	case requests.StatusClaimed, requests.StatusCarAssigned:
		request.ClaimAttempts++
		return nil, NewRejection(ReasonAlreadyClaimed, "request %s already has a live claim", request.RequestCode).ForRequest(requestID)
	default:
		return nil, NewRejection(ReasonTerminal, "request %s is %s", request.RequestCode, request.Status).ForRequest(requestID)
	}
}

func (f *fakeClaimRepo) AssignVehicle(ctx context.Context, claimID, hostID, carID uuid.UUID, completionDeadline time.Duration) (*RequestClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	claim, ok := f.claims[claimID]
	if !ok {
		return nil, ErrClaimNotFound
	}
	if claim.HostID != hostID {
		return nil, NewRejection(ReasonNotOwner, "claim %s belongs to another host", claimID)
	}
	if claim.Status != StatusPendingCar {
		return nil, NewRejection(ReasonWrongState, "claim is %s, expected %s", claim.Status, StatusPendingCar)
	}
	if !claim.ClaimExpiresAt.After(now) {
		f.reclaimLocked(claim, now)
		return nil, NewRejection(ReasonLeaseExpired, "lease expired at %s", claim.ClaimExpiresAt.Format(time.RFC3339)).ForRequest(claim.RequestID)
	}

	request := f.requests[claim.RequestID]
	if request.Status != requests.StatusClaimed {
		return nil, fmt.Errorf("%w: request %s not CLAIMED under live claim %s", ErrRequestOutOfSync, claim.RequestID, claimID)
	}

	due := now.Add(completionDeadline)
	claim.Status = StatusCarSelected
	claim.CarID = &carID
	claim.CarAssignedAt = &now
	claim.CompletionDueAt = &due
	request.Status = requests.StatusCarAssigned

	copied := *claim
	return &copied, nil
}

func (f *fakeClaimRepo) CompleteClaim(ctx context.Context, claimID, hostID uuid.UUID) (*RequestClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	claim, ok := f.claims[claimID]
	if !ok {
		return nil, ErrClaimNotFound
	}
	if claim.HostID != hostID {
		return nil, NewRejection(ReasonNotOwner, "claim %s belongs to another host", claimID)
	}
	if claim.Status != StatusCarSelected {
		return nil, fmt.Errorf("%w: cannot complete claim in status %s", ErrInvalidTransition, claim.Status)
	}

	request := f.requests[claim.RequestID]
	if request.Status != requests.StatusCarAssigned {
		return nil, fmt.Errorf("%w: request %s not CAR_ASSIGNED under live claim %s", ErrRequestOutOfSync, claim.RequestID, claimID)
	}

	claim.Status = StatusCompleted
	claim.CompletedAt = &now
	request.Status = requests.StatusFulfilled

	copied := *claim
	return &copied, nil
}

func (f *fakeClaimRepo) WithdrawClaim(ctx context.Context, claimID, hostID uuid.UUID) (*RequestClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	claim, ok := f.claims[claimID]
	if !ok {
		return nil, ErrClaimNotFound
	}
	if claim.HostID != hostID {
		return nil, NewRejection(ReasonNotOwner, "claim %s belongs to another host", claimID)
	}
	if !claim.Status.IsLive() {
		return nil, NewRejection(ReasonWrongState, "claim is %s, not live", claim.Status)
	}

	claim.Status = StatusWithdrawn
	request := f.requests[claim.RequestID]
	if request.ExpiresAt.After(now) {
		request.Status = requests.StatusOpen
	} else {
		request.Status = requests.StatusExpired
	}

	copied := *claim
	return &copied, nil
}

func (f *fakeClaimRepo) GetClaimByID(ctx context.Context, id uuid.UUID) (*RequestClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claim, ok := f.claims[id]
	if !ok {
		return nil, ErrClaimNotFound
	}
	copied := *claim
	return &copied, nil
}

func (f *fakeClaimRepo) GetLiveClaimForRequest(ctx context.Context, requestID uuid.UUID) (*RequestClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, claim := range f.claims {
		if claim.RequestID == requestID && claim.Status.IsLive() {
			copied := *claim
			return &copied, nil
		}
	}
	return nil, ErrClaimNotFound
}

func (f *fakeClaimRepo) ListClaimsByHost(ctx context.Context, hostID uuid.UUID) ([]RequestClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []RequestClaim
	for _, claim := range f.claims {
		if claim.HostID == hostID {
			result = append(result, *claim)
		}
	}
	return result, nil
}

func (f *fakeClaimRepo) SweepExpiredLeases(ctx context.Context, now time.Time, limit int) ([]SweptLease, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var swept []SweptLease
	for _, claim := range f.claims {
		if len(swept) >= limit {
			break
		}
		lapsed := (claim.Status == StatusPendingCar && !claim.ClaimExpiresAt.After(now)) ||
			(claim.Status == StatusCarSelected && claim.CompletionDueAt != nil && !claim.CompletionDueAt.After(now))
		if !lapsed {
			continue
		}

		target := f.reclaimLocked(claim, now)
		swept = append(swept, SweptLease{
			ClaimID:   claim.ID,
			RequestID: claim.RequestID,
			HostID:    claim.HostID,
			RequestTo: target,
		})
	}
	return swept, nil
}

func (f *fakeClaimRepo) reclaimLocked(claim *RequestClaim, now time.Time) requests.Status {
	claim.Status = StatusExpired
	request := f.requests[claim.RequestID]

	target := requests.StatusOpen
	if !request.ExpiresAt.After(now) {
		target = requests.StatusExpired
	}
	if request.Status == requests.StatusClaimed || request.Status == requests.StatusCarAssigned {
		request.Status = target
	}
	return target
}

// allowAllVerifier accepts every vehicle
type allowAllVerifier struct{}

func (allowAllVerifier) VerifyOwnership(ctx context.Context, vehicleID, hostID uuid.UUID) (bool, error) {
	return true, nil
}

// denyAllVerifier rejects every vehicle
type denyAllVerifier struct{}

func (denyAllVerifier) VerifyOwnership(ctx context.Context, vehicleID, hostID uuid.UUID) (bool, error) {
	return false, nil
}

type fakeExpirer struct {
	mu      sync.Mutex
	expired int64
}

func (f *fakeExpirer) ExpireOverdueOpen(ctx context.Context, now time.Time, limit int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.expired
	f.expired = 0
	return n, nil
}

// recordingNotifier captures published transition events
type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.ClaimEvent
}

func (r *recordingNotifier) NotifyTransition(ctx context.Context, event *notifications.ClaimEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

func (r *recordingNotifier) find(kind notifications.TransitionKind) (notifications.ClaimEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.Kind == kind {
			return event, true
		}
	}
	return notifications.ClaimEvent{}, false
}

// recordingInvalidator captures cache-invalidation calls
type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingInvalidator) InvalidateRequestCaches(ctx context.Context, requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, requestID)
}

func (r *recordingInvalidator) invalidated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func testClaimConfig() config.ClaimConfig {
	return config.ClaimConfig{
		LeaseDuration:      15 * time.Minute,
		CompletionDeadline: 24 * time.Hour,
		SweepInterval:      15 * time.Second,
		SweepBatchSize:     100,
	}
}

func openRequest(expiresIn time.Duration) *requests.ReservationRequest {
	return &requests.ReservationRequest{
		ID:          uuid.New(),
		RequestCode: "REQ-TEST0001",
		Status:      requests.StatusOpen,
		VehicleType: "SUV",
		MinSeats:    5,
		GuestID:     uuid.New(),
		OfferedRate: 80,
		PickupAt:    time.Now().Add(24 * time.Hour),
		ReturnAt:    time.Now().Add(72 * time.Hour),
		ExpiresAt:   time.Now().Add(expiresIn),
	}
}

func newTestService(repo *fakeClaimRepo) Service {
	svc := NewService(repo, testClaimConfig())
	svc.SetVehicleVerifier(allowAllVerifier{})
	return svc
}

func TestAttemptClaim_ExactlyOneWinnerUnderContention(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	const hostCount = 12
	var wg sync.WaitGroup
	winners := make(chan *ClaimResponse, hostCount)
	losers := make(chan *ClaimRejectedError, hostCount)

	for i := 0; i < hostCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.AttemptClaim(context.Background(), request.ID, uuid.New(), nil)
			if err != nil {
				rejected, ok := AsRejection(err)
				if assert.True(t, ok, "unexpected non-rejection error: %v", err) {
					losers <- rejected
				}
				return
			}
			winners <- resp
		}()
	}
	wg.Wait()
	close(winners)
	close(losers)

	assert.Len(t, winners, 1, "exactly one host must win the claim")
	assert.Len(t, losers, hostCount-1)
	for rejected := range losers {
		assert.Equal(t, ReasonAlreadyClaimed, rejected.Reason)
	}

	assert.Equal(t, requests.StatusClaimed, repo.requestStatus(request.ID))
	// Every attempt counts, winners and losers alike
	assert.Equal(t, hostCount, repo.requestAttempts(request.ID))
}

func TestAttemptClaim_WinnerGetsLeaseAndRequestRate(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	hostID := uuid.New()
	before := time.Now()
	resp, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusPendingCar, resp.Status)
	assert.Equal(t, hostID.String(), resp.HostID)
	assert.Equal(t, request.OfferedRate, resp.OfferedRate, "nil rate falls back to the request's offered rate")
	assert.WithinDuration(t, before.Add(15*time.Minute), resp.ClaimExpiresAt, 5*time.Second)
}

func TestAttemptClaim_CounterRate(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	counter := 72.5
	resp, err := svc.AttemptClaim(context.Background(), request.ID, uuid.New(), &counter)
	require.NoError(t, err)
	assert.Equal(t, counter, resp.OfferedRate)
}

func TestAttemptClaim_OverdueRequestExpiresLazily(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(-time.Minute)
	repo.addRequest(request)
	svc := newTestService(repo)

	_, err := svc.AttemptClaim(context.Background(), request.ID, uuid.New(), nil)
	rejected, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonRequestExpired, rejected.Reason)
	assert.Equal(t, requests.StatusExpired, repo.requestStatus(request.ID))

	// A second attempt sees a terminal request, not REQUEST_EXPIRED
	_, err = svc.AttemptClaim(context.Background(), request.ID, uuid.New(), nil)
	rejected, ok = AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonTerminal, rejected.Reason)
}

func TestAttemptClaim_ReleasedMidAttemptStaysOpen(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(3 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	holder := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, holder, nil)
	require.NoError(t, err)

	// The holder withdraws while a late attempt is being classified, so the
	// classifier re-reads an OPEN request whose deadline is hours away
	repo.betweenRaceAndClassify = func() {
		_, withdrawErr := svc.WithdrawClaim(context.Background(), uuid.MustParse(claim.ID), holder)
		assert.NoError(t, withdrawErr)
	}

	_, err = svc.AttemptClaim(context.Background(), request.ID, uuid.New(), nil)
	rejected, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonAlreadyClaimed, rejected.Reason)

	// The reopened request stays claimable; it must not flip to EXPIRED
	assert.Equal(t, requests.StatusOpen, repo.requestStatus(request.ID))
	assert.Equal(t, 2, repo.requestAttempts(request.ID))

	repo.betweenRaceAndClassify = nil
	next, err := svc.AttemptClaim(context.Background(), request.ID, uuid.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingCar, next.Status)
}

func TestAttemptClaim_UnknownRequest(t *testing.T) {
	repo := newFakeClaimRepo()
	svc := newTestService(repo)

	_, err := svc.AttemptClaim(context.Background(), uuid.New(), uuid.New(), nil)
	assert.ErrorIs(t, err, requests.ErrRequestNotFound)
}

func TestAssignVehicle_AdvancesClaimAndRequest(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	claimID := uuid.MustParse(claim.ID)
	carID := uuid.New()
	resp, err := svc.AssignVehicle(context.Background(), claimID, hostID, carID)
	require.NoError(t, err)

	assert.Equal(t, StatusCarSelected, resp.Status)
	require.NotNil(t, resp.CarID)
	assert.Equal(t, carID.String(), *resp.CarID)
	require.NotNil(t, resp.CompletionDue)
	assert.Equal(t, requests.StatusCarAssigned, repo.requestStatus(request.ID))
}

func TestAssignVehicle_RejectsForeignVehicle(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := NewService(repo, testClaimConfig())
	svc.SetVehicleVerifier(denyAllVerifier{})

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	_, err = svc.AssignVehicle(context.Background(), uuid.MustParse(claim.ID), hostID, uuid.New())
	assert.ErrorIs(t, err, ErrVehicleNotEligible)

	// The failed assignment must not consume the lease
	assert.Equal(t, StatusPendingCar, repo.claimStatus(uuid.MustParse(claim.ID)))
}

func TestAssignVehicle_LapsedLeaseIsReclaimed(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	claimID := uuid.MustParse(claim.ID)
	repo.setLeaseExpiry(claimID, time.Now().Add(-time.Second))

	_, err = svc.AssignVehicle(context.Background(), claimID, hostID, uuid.New())
	rejected, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonLeaseExpired, rejected.Reason)

	// Claim expired, request reopened for the next host
	assert.Equal(t, StatusExpired, repo.claimStatus(claimID))
	assert.Equal(t, requests.StatusOpen, repo.requestStatus(request.ID))

	// The expired claim never comes back
	_, err = svc.AssignVehicle(context.Background(), claimID, hostID, uuid.New())
	rejected, ok = AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonWrongState, rejected.Reason)
}

func TestAssignVehicle_LapsedLeaseEventNamesReopenedRequest(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)

	notifier := &recordingNotifier{}
	invalidator := &recordingInvalidator{}
	svc := newTestService(repo)
	svc.SetNotifier(notifier)
	svc.SetRequestInvalidator(invalidator)

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	claimID := uuid.MustParse(claim.ID)
	repo.setLeaseExpiry(claimID, time.Now().Add(-time.Second))

	_, err = svc.AssignVehicle(context.Background(), claimID, hostID, uuid.New())
	rejected, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, ReasonLeaseExpired, rejected.Reason)
	assert.Equal(t, request.ID, rejected.RequestID)

	// Publishing is asynchronous
	require.Eventually(t, func() bool {
		_, found := notifier.find(notifications.TransitionLeaseExpired)
		return found
	}, time.Second, 5*time.Millisecond, "lease-expired event must be published")

	event, _ := notifier.find(notifications.TransitionLeaseExpired)
	assert.Equal(t, request.ID, event.RequestID, "event must name the reopened request")
	require.NotNil(t, event.ClaimID)
	assert.Equal(t, claimID, *event.ClaimID)

	// The reopened request leaves the browse cache immediately
	assert.Contains(t, invalidator.invalidated(), request.ID.String())
}

func TestAssignVehicle_WrongHost(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	claim, err := svc.AttemptClaim(context.Background(), request.ID, uuid.New(), nil)
	require.NoError(t, err)

	_, err = svc.AssignVehicle(context.Background(), uuid.MustParse(claim.ID), uuid.New(), uuid.New())
	rejected, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonNotOwner, rejected.Reason)
}

func TestCompleteClaim_FullLifecycle(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	claimID := uuid.MustParse(claim.ID)
	_, err = svc.AssignVehicle(context.Background(), claimID, hostID, uuid.New())
	require.NoError(t, err)

	resp, err := svc.CompleteClaim(context.Background(), claimID, hostID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, resp.Status)
	require.NotNil(t, resp.CompletedAt)
	assert.Equal(t, requests.StatusFulfilled, repo.requestStatus(request.ID))

	// A fulfilled request is closed to further attempts
	_, err = svc.AttemptClaim(context.Background(), request.ID, uuid.New(), nil)
	rejected, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonTerminal, rejected.Reason)
}

func TestCompleteClaim_WithoutVehicleIsIntegrityError(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	// Completing a PENDING_CAR claim is caller misuse, not a rejection
	_, err = svc.CompleteClaim(context.Background(), uuid.MustParse(claim.ID), hostID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, isRejection := AsRejection(err)
	assert.False(t, isRejection)
}

func TestWithdrawClaim_ReopensRequest(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	resp, err := svc.WithdrawClaim(context.Background(), uuid.MustParse(claim.ID), hostID)
	require.NoError(t, err)
	assert.Equal(t, StatusWithdrawn, resp.Status)
	assert.Equal(t, requests.StatusOpen, repo.requestStatus(request.ID))

	// Reopened means claimable again
	second, err := svc.AttemptClaim(context.Background(), request.ID, uuid.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingCar, second.Status)
}

func TestWithdrawClaim_OverdueRequestExpiresInstead(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(time.Second)
	repo.addRequest(request)
	svc := newTestService(repo)

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	// Push the request past its own deadline before the withdraw lands
	repo.mu.Lock()
	repo.requests[request.ID].ExpiresAt = time.Now().Add(-time.Second)
	repo.mu.Unlock()

	_, err = svc.WithdrawClaim(context.Background(), uuid.MustParse(claim.ID), hostID)
	require.NoError(t, err)
	assert.Equal(t, requests.StatusExpired, repo.requestStatus(request.ID))
}

func TestWithdrawClaim_TerminalClaimRejected(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	claimID := uuid.MustParse(claim.ID)
	_, err = svc.WithdrawClaim(context.Background(), claimID, hostID)
	require.NoError(t, err)

	_, err = svc.WithdrawClaim(context.Background(), claimID, hostID)
	rejected, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonWrongState, rejected.Reason)
}

func TestSweepOnce_ReclaimsLapsedLease(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	claimID := uuid.MustParse(claim.ID)
	repo.setLeaseExpiry(claimID, time.Now().Add(-time.Minute))

	result, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.LeasesReclaimed)

	assert.Equal(t, StatusExpired, repo.claimStatus(claimID))
	assert.Equal(t, requests.StatusOpen, repo.requestStatus(request.ID))

	// Sweeping again is a no-op
	result, err = svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.LeasesReclaimed)
}

func TestSweepOnce_ReclaimsMissedCompletionDeadline(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	claimID := uuid.MustParse(claim.ID)
	_, err = svc.AssignVehicle(context.Background(), claimID, hostID, uuid.New())
	require.NoError(t, err)

	repo.setCompletionDue(claimID, time.Now().Add(-time.Minute))

	result, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.LeasesReclaimed)
	assert.Equal(t, StatusExpired, repo.claimStatus(claimID))
	assert.Equal(t, requests.StatusOpen, repo.requestStatus(request.ID))

	// The lapsed host cannot complete a reclaimed claim
	_, err = svc.CompleteClaim(context.Background(), claimID, hostID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSweepOnce_CountsExpiredOpenRequests(t *testing.T) {
	repo := newFakeClaimRepo()
	svc := newTestService(repo)

	expirer := &fakeExpirer{expired: 3}
	svc.SetOpenRequestExpirer(expirer)

	result, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.LeasesReclaimed)
	assert.Equal(t, 3, result.RequestsExpired)
}

func TestGetClaim_OwnerOnly(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	claimID := uuid.MustParse(claim.ID)
	got, err := svc.GetClaim(context.Background(), claimID, hostID)
	require.NoError(t, err)
	assert.Equal(t, claim.ID, got.ID)

	_, err = svc.GetClaim(context.Background(), claimID, uuid.New())
	rejected, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonNotOwner, rejected.Reason)
}

func TestGetLiveClaimForRequest_TracksTheHolder(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(2 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	_, err := svc.GetLiveClaimForRequest(context.Background(), request.ID)
	assert.ErrorIs(t, err, ErrClaimNotFound, "open request has no live claim yet")

	hostID := uuid.New()
	claim, err := svc.AttemptClaim(context.Background(), request.ID, hostID, nil)
	require.NoError(t, err)

	live, err := svc.GetLiveClaimForRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.ID, live.ID)

	_, err = svc.WithdrawClaim(context.Background(), uuid.MustParse(claim.ID), hostID)
	require.NoError(t, err)

	_, err = svc.GetLiveClaimForRequest(context.Background(), request.ID)
	assert.ErrorIs(t, err, ErrClaimNotFound, "withdrawn claim no longer holds the request")
}

// The reference scenario: two hosts race, the loser keeps trying, the winner's
// lease lapses, the request reopens and the second host takes it to fulfillment.
func TestClaimLifecycle_ContendedHandoff(t *testing.T) {
	repo := newFakeClaimRepo()
	request := openRequest(4 * time.Hour)
	repo.addRequest(request)
	svc := newTestService(repo)

	hostA := uuid.New()
	hostB := uuid.New()

	claimA, err := svc.AttemptClaim(context.Background(), request.ID, hostA, nil)
	require.NoError(t, err)

	_, err = svc.AttemptClaim(context.Background(), request.ID, hostB, nil)
	rejected, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonAlreadyClaimed, rejected.Reason)

	// Host A walks away; the sweeper reclaims the lease
	repo.setLeaseExpiry(uuid.MustParse(claimA.ID), time.Now().Add(-time.Second))
	result, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.LeasesReclaimed)
	require.Equal(t, requests.StatusOpen, repo.requestStatus(request.ID))

	// Host B now wins and carries the request to fulfillment
	claimB, err := svc.AttemptClaim(context.Background(), request.ID, hostB, nil)
	require.NoError(t, err)

	claimBID := uuid.MustParse(claimB.ID)
	_, err = svc.AssignVehicle(context.Background(), claimBID, hostB, uuid.New())
	require.NoError(t, err)
	_, err = svc.CompleteClaim(context.Background(), claimBID, hostB)
	require.NoError(t, err)

	assert.Equal(t, requests.StatusFulfilled, repo.requestStatus(request.ID))
	assert.Equal(t, StatusExpired, repo.claimStatus(uuid.MustParse(claimA.ID)))
	assert.Equal(t, StatusCompleted, repo.claimStatus(claimBID))
	// Three attempts landed on this request in total
	assert.Equal(t, 3, repo.requestAttempts(request.ID))
}
