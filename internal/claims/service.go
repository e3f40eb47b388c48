package claims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itwhiprentals/itwhip-website-sub025/internal/notifications"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/requests"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/config"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/constants"
	"github.com/itwhiprentals/itwhip-website-sub025/pkg/cache"
	"github.com/itwhiprentals/itwhip-website-sub025/pkg/logger"

	"github.com/google/uuid"
)

// ErrVehicleNotEligible is returned when the car offered for assignment does
// not exist, is inactive, or belongs to another host.
var ErrVehicleNotEligible = errors.New("vehicle is not an active vehicle of this host")

// VehicleVerifier checks car ownership at assignment time.
// Interface kept local to avoid a dependency on the fleet package internals.
type VehicleVerifier interface {
	VerifyOwnership(ctx context.Context, vehicleID, hostID uuid.UUID) (bool, error)
}

// RequestCacheInvalidator clears cached request views after a transition.
// Satisfied by the requests service.
type RequestCacheInvalidator interface {
	InvalidateRequestCaches(ctx context.Context, requestID string)
}

// OpenRequestExpirer flips overdue OPEN requests to EXPIRED in batches.
// Satisfied by the requests repository; the sweeper drives it.
type OpenRequestExpirer interface {
	ExpireOverdueOpen(ctx context.Context, now time.Time, limit int) (int64, error)
}

type Service interface {
	SetCacheService(cacheService cache.Service)
	SetNotifier(notifier notifications.EventNotifier)
	SetVehicleVerifier(verifier VehicleVerifier)
	SetRequestInvalidator(invalidator RequestCacheInvalidator)
	SetOpenRequestExpirer(expirer OpenRequestExpirer)

	AttemptClaim(ctx context.Context, requestID, hostID uuid.UUID, offeredRate *float64) (*ClaimResponse, error)
	AssignVehicle(ctx context.Context, claimID, hostID, carID uuid.UUID) (*ClaimResponse, error)
	CompleteClaim(ctx context.Context, claimID, hostID uuid.UUID) (*ClaimResponse, error)
	WithdrawClaim(ctx context.Context, claimID, hostID uuid.UUID) (*ClaimResponse, error)

	GetClaim(ctx context.Context, claimID, hostID uuid.UUID) (*ClaimResponse, error)
	GetLiveClaimForRequest(ctx context.Context, requestID uuid.UUID) (*ClaimResponse, error)
	ListHostClaims(ctx context.Context, hostID uuid.UUID) ([]ClaimResponse, error)

	// SweepOnce runs one sweeper pass: reclaim lapsed leases, then expire
	// overdue OPEN requests. Safe to run concurrently with host actions.
	SweepOnce(ctx context.Context) (*SweepResult, error)
}

type service struct {
	repo         Repository
	claimCfg     config.ClaimConfig
	cacheService cache.Service
	notifier     notifications.EventNotifier
	verifier     VehicleVerifier
	invalidator  RequestCacheInvalidator
	expirer      OpenRequestExpirer
	log          *logger.Logger
}

func NewService(repo Repository, claimCfg config.ClaimConfig) Service {
	return &service{
		repo:     repo,
		claimCfg: claimCfg,
		log:      logger.GetDefault(),
	}
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) SetNotifier(notifier notifications.EventNotifier) {
	s.notifier = notifier
}

func (s *service) SetVehicleVerifier(verifier VehicleVerifier) {
	s.verifier = verifier
}

func (s *service) SetRequestInvalidator(invalidator RequestCacheInvalidator) {
	s.invalidator = invalidator
}

func (s *service) SetOpenRequestExpirer(expirer OpenRequestExpirer) {
	s.expirer = expirer
}

func (s *service) AttemptClaim(ctx context.Context, requestID, hostID uuid.UUID, offeredRate *float64) (*ClaimResponse, error) {
	claim, err := s.repo.AttemptClaim(ctx, requestID, hostID, offeredRate, s.claimCfg.LeaseDuration)
	if err != nil {
		if rejected, ok := AsRejection(err); ok {
			s.log.LogClaimRejected(ctx, requestID.String(), hostID.String(), string(rejected.Reason))
			if rejected.Reason == ReasonRequestExpired {
				// The lost attempt lazily expired the request
				s.invalidateRequest(ctx, requestID, hostID)
				s.notify(notifications.NewClaimEvent(
					notifications.TransitionRequestExpired, requestID,
					string(requests.StatusOpen), string(requests.StatusExpired)))
			}
		}
		return nil, err
	}

	s.log.LogClaimWon(ctx, requestID.String(), claim.ID.String(), hostID.String())
	s.invalidateRequest(ctx, requestID, hostID)
	s.notify(notifications.NewClaimEvent(
		notifications.TransitionClaimWon, requestID, "", string(StatusPendingCar)).
		WithClaim(claim.ID).WithHost(hostID))

	response := claim.ToResponse()
	return &response, nil
}

func (s *service) AssignVehicle(ctx context.Context, claimID, hostID, carID uuid.UUID) (*ClaimResponse, error) {
	if s.verifier != nil {
		owned, err := s.verifier.VerifyOwnership(ctx, carID, hostID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify vehicle ownership: %w", err)
		}
		if !owned {
			return nil, ErrVehicleNotEligible
		}
	}

	claim, err := s.repo.AssignVehicle(ctx, claimID, hostID, carID, s.claimCfg.CompletionDeadline)
	if err != nil {
		if rejected, ok := AsRejection(err); ok && rejected.Reason == ReasonLeaseExpired {
			// The lost assignment lazily reclaimed the lease and reopened the
			// request, so this follows the same invalidate+notify path as the
			// sweeper.
			s.log.LogLeaseExpired(ctx, rejected.RequestID.String(), claimID.String())
			s.invalidateRequest(ctx, rejected.RequestID, hostID)
			s.notify(notifications.NewClaimEvent(
				notifications.TransitionLeaseExpired, rejected.RequestID,
				string(StatusPendingCar), string(StatusExpired)).
				WithClaim(claimID).WithHost(hostID))
		}
		return nil, err
	}

	s.invalidateRequest(ctx, claim.RequestID, hostID)
	s.notify(notifications.NewClaimEvent(
		notifications.TransitionCarAssigned, claim.RequestID,
		string(StatusPendingCar), string(StatusCarSelected)).
		WithClaim(claim.ID).WithHost(hostID))

	response := claim.ToResponse()
	return &response, nil
}

func (s *service) CompleteClaim(ctx context.Context, claimID, hostID uuid.UUID) (*ClaimResponse, error) {
	claim, err := s.repo.CompleteClaim(ctx, claimID, hostID)
	if err != nil {
		return nil, err
	}

	s.log.LogRequestFulfilled(ctx, claim.RequestID.String(), claim.ID.String(), hostID.String())
	s.invalidateRequest(ctx, claim.RequestID, hostID)
	s.notify(notifications.NewClaimEvent(
		notifications.TransitionClaimCompleted, claim.RequestID,
		string(StatusCarSelected), string(StatusCompleted)).
		WithClaim(claim.ID).WithHost(hostID))

	response := claim.ToResponse()
	return &response, nil
}

func (s *service) WithdrawClaim(ctx context.Context, claimID, hostID uuid.UUID) (*ClaimResponse, error) {
	claim, err := s.repo.WithdrawClaim(ctx, claimID, hostID)
	if err != nil {
		return nil, err
	}

	s.invalidateRequest(ctx, claim.RequestID, hostID)
	s.notify(notifications.NewClaimEvent(
		notifications.TransitionClaimWithdrawn, claim.RequestID,
		"", string(StatusWithdrawn)).
		WithClaim(claim.ID).WithHost(hostID))

	response := claim.ToResponse()
	return &response, nil
}

func (s *service) GetClaim(ctx context.Context, claimID, hostID uuid.UUID) (*ClaimResponse, error) {
	claim, err := s.repo.GetClaimByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.HostID != hostID {
		return nil, NewRejection(ReasonNotOwner, "claim %s belongs to another host", claimID).ForRequest(claim.RequestID)
	}

	response := claim.ToResponse()
	return &response, nil
}

// GetLiveClaimForRequest returns the claim currently holding the request, if
// any. The partial unique index guarantees there is at most one.
func (s *service) GetLiveClaimForRequest(ctx context.Context, requestID uuid.UUID) (*ClaimResponse, error) {
	claim, err := s.repo.GetLiveClaimForRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	response := claim.ToResponse()
	return &response, nil
}

func (s *service) ListHostClaims(ctx context.Context, hostID uuid.UUID) ([]ClaimResponse, error) {
	cacheKey := constants.BuildHostClaimsKey(hostID.String())

	if s.cacheService != nil {
		var cached []ClaimResponse
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	claimRows, err := s.repo.ListClaimsByHost(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}

	responses := make([]ClaimResponse, len(claimRows))
	for i, claim := range claimRows {
		responses[i] = claim.ToResponse()
	}

	if s.cacheService != nil {
		_ = s.cacheService.Set(ctx, cacheKey, responses, constants.TTL_SEMI_STATIC_SHORT)
	}

	return responses, nil
}

func (s *service) SweepOnce(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	result := &SweepResult{}

	swept, err := s.repo.SweepExpiredLeases(ctx, start, s.claimCfg.SweepBatchSize)
	for _, lease := range swept {
		result.LeasesReclaimed++
		if lease.RequestTo == requests.StatusExpired {
			result.RequestsExpired++
		}

		s.log.LogLeaseExpired(ctx, lease.RequestID.String(), lease.ClaimID.String())
		s.invalidateRequest(ctx, lease.RequestID, lease.HostID)
		s.notify(notifications.NewClaimEvent(
			notifications.TransitionLeaseExpired, lease.RequestID,
			"", string(StatusExpired)).
			WithClaim(lease.ClaimID).WithHost(lease.HostID))
	}
	if err != nil {
		// Partial pass: what was reclaimed stays reclaimed, the rest waits
		// for the next interval
		return result, fmt.Errorf("sweep pass incomplete: %w", err)
	}

	if s.expirer != nil {
		expired, err := s.expirer.ExpireOverdueOpen(ctx, start, s.claimCfg.SweepBatchSize)
		if err != nil {
			return result, fmt.Errorf("failed to expire overdue open requests: %w", err)
		}
		result.RequestsExpired += int(expired)
		if expired > 0 && s.invalidator != nil {
			// Expired requests leave the browse surface
			s.invalidator.InvalidateRequestCaches(ctx, "")
		}
	}

	s.log.LogSweepPass(ctx, result.LeasesReclaimed, result.RequestsExpired, time.Since(start))
	return result, nil
}

// notify publishes fire-and-forget: a failed delivery never fails the
// transition that produced it.
func (s *service) notify(event *notifications.ClaimEvent) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notifier.NotifyTransition(ctx, event); err != nil {
			s.log.ErrorWithContext(ctx, "failed to publish claim event", err, map[string]interface{}{
				"kind":       string(event.Kind),
				"request_id": event.RequestID.String(),
			})
		}
	}()
}

func (s *service) invalidateRequest(ctx context.Context, requestID, hostID uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.InvalidateRequestCaches(ctx, requestID.String())
	}
	s.invalidateHostClaims(ctx, hostID)
}

func (s *service) invalidateHostClaims(ctx context.Context, hostID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	_ = s.cacheService.Delete(ctx, constants.BuildHostClaimsKey(hostID.String()))
}
