package claims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itwhiprentals/itwhip-website-sub025/internal/requests"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SweptLease describes one lease the sweeper reclaimed
type SweptLease struct {
	ClaimID   uuid.UUID
	RequestID uuid.UUID
	HostID    uuid.UUID
	RequestTo requests.Status
}

// Repository carries the atomic conditional transitions of the claim engine.
// Every mutation of request status or claim status goes through exactly one of
// these operations; none of them is a separate read-then-write pair.
type Repository interface {
	AttemptClaim(ctx context.Context, requestID, hostID uuid.UUID, offeredRate *float64, leaseDuration time.Duration) (*RequestClaim, error)
	AssignVehicle(ctx context.Context, claimID, hostID, carID uuid.UUID, completionDeadline time.Duration) (*RequestClaim, error)
	CompleteClaim(ctx context.Context, claimID, hostID uuid.UUID) (*RequestClaim, error)
	WithdrawClaim(ctx context.Context, claimID, hostID uuid.UUID) (*RequestClaim, error)

	GetClaimByID(ctx context.Context, id uuid.UUID) (*RequestClaim, error)
	GetLiveClaimForRequest(ctx context.Context, requestID uuid.UUID) (*RequestClaim, error)
	ListClaimsByHost(ctx context.Context, hostID uuid.UUID) ([]RequestClaim, error)

	SweepExpiredLeases(ctx context.Context, now time.Time, limit int) ([]SweptLease, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// errSweepLost marks a lease that a host action advanced between the sweeper's
// scan and its transition. The sweeper skips it; nothing is wrong.
var errSweepLost = errors.New("claim advanced before sweep")

// AttemptClaim races for the lease. The request-side conditional UPDATE is the
// compare-and-swap: of any number of concurrent attempts exactly one matches
// status = OPEN and flips it to CLAIMED; everyone else sees zero rows affected
// and gets classified into a typed rejection. The loser's attempt still counts
// toward claim_attempts.
func (r *repository) AttemptClaim(ctx context.Context, requestID, hostID uuid.UUID, offeredRate *float64, leaseDuration time.Duration) (*RequestClaim, error) {
	now := time.Now()

	var claim *RequestClaim
	var rejection *ClaimRejectedError

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&requests.ReservationRequest{}).
			Where("id = ? AND status = ? AND expires_at > ?", requestID, requests.StatusOpen, now).
			Updates(map[string]interface{}{
				"status":         requests.StatusClaimed,
				"claim_attempts": gorm.Expr("claim_attempts + 1"),
				"updated_at":     now,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			rej, err := r.classifyAttemptRejection(tx, requestID, now)
			if err != nil {
				return err
			}
			rejection = rej
			return nil
		}

		rate, err := r.resolveOfferedRate(tx, requestID, offeredRate)
		if err != nil {
			return err
		}

		claim = &RequestClaim{
			RequestID:      requestID,
			HostID:         hostID,
			Status:         StatusPendingCar,
			OfferedRate:    rate,
			ClaimedAt:      now,
			ClaimExpiresAt: now.Add(leaseDuration),
		}
		return tx.Create(claim).Error
	})
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return nil, rejection
	}
	return claim, nil
}

// classifyAttemptRejection explains a lost compare-and-swap. Side effects
// (loser attempt counting, lazy OPEN -> EXPIRED flip) must commit, so this
// returns the rejection as a value instead of an error.
func (r *repository) classifyAttemptRejection(tx *gorm.DB, requestID uuid.UUID, now time.Time) (*ClaimRejectedError, error) {
	var request requests.ReservationRequest
	if err := tx.Where("id = ?", requestID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, requests.ErrRequestNotFound
		}
		return nil, err
	}

	switch request.Status {
	case requests.StatusOpen:
		// OPEN again with a live deadline means a withdraw or sweep reopened
		// the request between the race and this read. Race lost, not expired.
		if request.ExpiresAt.After(now) {
			if err := r.countLostAttempt(tx, requestID); err != nil {
				return nil, err
			}
			return NewRejection(ReasonAlreadyClaimed, "request %s was released mid-attempt", request.RequestCode).ForRequest(requestID), nil
		}

		// Deadline passed; flip it lazily. The flip is guarded on both status
		// and deadline so a concurrent reopen can never land a valid request
		// in terminal EXPIRED.
		result := tx.Model(&requests.ReservationRequest{}).
			Where("id = ? AND status = ? AND expires_at <= ?", requestID, requests.StatusOpen, now).
			Updates(map[string]interface{}{
				"status":     requests.StatusExpired,
				"updated_at": now,
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			// The row changed again between the read and the flip
			if err := r.countLostAttempt(tx, requestID); err != nil {
				return nil, err
			}
			return NewRejection(ReasonAlreadyClaimed, "request %s changed mid-attempt", request.RequestCode).ForRequest(requestID), nil
		}
		return NewRejection(ReasonRequestExpired, "request %s expired at %s", request.RequestCode, request.ExpiresAt.Format(time.RFC3339)).ForRequest(requestID), nil

	case requests.StatusClaimed, requests.StatusCarAssigned:
		// Race lost. The attempt still counts.
		if err := r.countLostAttempt(tx, requestID); err != nil {
			return nil, err
		}
		return NewRejection(ReasonAlreadyClaimed, "request %s already has a live claim", request.RequestCode).ForRequest(requestID), nil

	default:
		return NewRejection(ReasonTerminal, "request %s is %s", request.RequestCode, request.Status).ForRequest(requestID), nil
	}
}

func (r *repository) countLostAttempt(tx *gorm.DB, requestID uuid.UUID) error {
	return tx.Model(&requests.ReservationRequest{}).
		Where("id = ?", requestID).
		UpdateColumn("claim_attempts", gorm.Expr("claim_attempts + 1")).Error
}

func (r *repository) resolveOfferedRate(tx *gorm.DB, requestID uuid.UUID, offeredRate *float64) (float64, error) {
	if offeredRate != nil {
		return *offeredRate, nil
	}
	var request requests.ReservationRequest
	if err := tx.Where("id = ?", requestID).First(&request).Error; err != nil {
		return 0, err
	}
	return request.OfferedRate, nil
}

// AssignVehicle advances a live PENDING_CAR claim within its lease. An elapsed
// lease is reclaimed lazily here with the same transition the sweeper uses, so
// the caller's LEASE_EXPIRED rejection and the reopened request commit together.
func (r *repository) AssignVehicle(ctx context.Context, claimID, hostID, carID uuid.UUID, completionDeadline time.Duration) (*RequestClaim, error) {
	now := time.Now()

	var updated *RequestClaim
	var rejection *ClaimRejectedError

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var claim RequestClaim
		if err := tx.Where("id = ?", claimID).First(&claim).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClaimNotFound
			}
			return err
		}

		if claim.HostID != hostID {
			rejection = NewRejection(ReasonNotOwner, "claim %s belongs to another host", claimID).ForRequest(claim.RequestID)
			return nil
		}

		completionDue := now.Add(completionDeadline)
		result := tx.Model(&RequestClaim{}).
			Where("id = ? AND status = ? AND claim_expires_at > ?", claimID, StatusPendingCar, now).
			Updates(map[string]interface{}{
				"status":            StatusCarSelected,
				"car_id":            carID,
				"car_assigned_at":   now,
				"completion_due_at": completionDue,
				"updated_at":        now,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			if claim.Status != StatusPendingCar {
				rejection = NewRejection(ReasonWrongState, "claim is %s, expected %s", claim.Status, StatusPendingCar).ForRequest(claim.RequestID)
				return nil
			}
			// Lease elapsed before the assignment landed
			if err := r.reclaimLapsedLease(tx, &claim, now); err != nil && !errors.Is(err, errSweepLost) {
				return err
			}
			rejection = NewRejection(ReasonLeaseExpired, "lease expired at %s", claim.ClaimExpiresAt.Format(time.RFC3339)).ForRequest(claim.RequestID)
			return nil
		}

		result = tx.Model(&requests.ReservationRequest{}).
			Where("id = ? AND status = ?", claim.RequestID, requests.StatusClaimed).
			Updates(map[string]interface{}{
				"status":     requests.StatusCarAssigned,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: request %s not CLAIMED under live claim %s", ErrRequestOutOfSync, claim.RequestID, claimID)
		}

		claim.Status = StatusCarSelected
		claim.CarID = &carID
		claim.CarAssignedAt = &now
		claim.CompletionDueAt = &completionDue
		updated = &claim
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return nil, rejection
	}
	return updated, nil
}

// CompleteClaim closes the lifecycle: claim COMPLETED, request FULFILLED.
// Completing a claim that is not CAR_SELECTED is caller misuse, not a domain
// outcome, and surfaces as ErrInvalidTransition.
func (r *repository) CompleteClaim(ctx context.Context, claimID, hostID uuid.UUID) (*RequestClaim, error) {
	now := time.Now()

	var updated *RequestClaim
	var rejection *ClaimRejectedError

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var claim RequestClaim
		if err := tx.Where("id = ?", claimID).First(&claim).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClaimNotFound
			}
			return err
		}

		if claim.HostID != hostID {
			rejection = NewRejection(ReasonNotOwner, "claim %s belongs to another host", claimID).ForRequest(claim.RequestID)
			return nil
		}

		result := tx.Model(&RequestClaim{}).
			Where("id = ? AND status = ?", claimID, StatusCarSelected).
			Updates(map[string]interface{}{
				"status":       StatusCompleted,
				"completed_at": now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: cannot complete claim in status %s", ErrInvalidTransition, claim.Status)
		}

		result = tx.Model(&requests.ReservationRequest{}).
			Where("id = ? AND status = ?", claim.RequestID, requests.StatusCarAssigned).
			Updates(map[string]interface{}{
				"status":     requests.StatusFulfilled,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: request %s not CAR_ASSIGNED under live claim %s", ErrRequestOutOfSync, claim.RequestID, claimID)
		}

		claim.Status = StatusCompleted
		claim.CompletedAt = &now
		updated = &claim
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return nil, rejection
	}
	return updated, nil
}

// WithdrawClaim is the voluntary release: the claim goes WITHDRAWN and the
// request reopens immediately, or expires if its own deadline has passed.
func (r *repository) WithdrawClaim(ctx context.Context, claimID, hostID uuid.UUID) (*RequestClaim, error) {
	now := time.Now()

	var updated *RequestClaim
	var rejection *ClaimRejectedError

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var claim RequestClaim
		if err := tx.Where("id = ?", claimID).First(&claim).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClaimNotFound
			}
			return err
		}

		if claim.HostID != hostID {
			rejection = NewRejection(ReasonNotOwner, "claim %s belongs to another host", claimID).ForRequest(claim.RequestID)
			return nil
		}

		result := tx.Model(&RequestClaim{}).
			Where("id = ? AND status IN ?", claimID, LiveStatuses).
			Updates(map[string]interface{}{
				"status":     StatusWithdrawn,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			rejection = NewRejection(ReasonWrongState, "claim is %s, not live", claim.Status).ForRequest(claim.RequestID)
			return nil
		}

		var request requests.ReservationRequest
		if err := tx.Where("id = ?", claim.RequestID).First(&request).Error; err != nil {
			return err
		}

		target := requests.StatusOpen
		if !request.ExpiresAt.After(now) {
			target = requests.StatusExpired
		}

		result = tx.Model(&requests.ReservationRequest{}).
			Where("id = ? AND status IN ?", claim.RequestID,
				[]requests.Status{requests.StatusClaimed, requests.StatusCarAssigned}).
			Updates(map[string]interface{}{
				"status":     target,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: request %s not claimed under live claim %s", ErrRequestOutOfSync, claim.RequestID, claimID)
		}

		claim.Status = StatusWithdrawn
		updated = &claim
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return nil, rejection
	}
	return updated, nil
}

func (r *repository) GetClaimByID(ctx context.Context, id uuid.UUID) (*RequestClaim, error) {
	var claim RequestClaim
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&claim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return &claim, nil
}

func (r *repository) GetLiveClaimForRequest(ctx context.Context, requestID uuid.UUID) (*RequestClaim, error) {
	var claim RequestClaim
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND status IN ?", requestID, LiveStatuses).
		First(&claim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return &claim, nil
}

func (r *repository) ListClaimsByHost(ctx context.Context, hostID uuid.UUID) ([]RequestClaim, error) {
	var result []RequestClaim
	err := r.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("claimed_at DESC").
		Find(&result).Error
	return result, err
}

// SweepExpiredLeases reclaims lapsed leases: PENDING_CAR past its lease window
// and CAR_SELECTED past its completion deadline. Each lease is reclaimed in
// its own transaction so one contended row never aborts the whole pass, and
// the status condition makes a repeated pass over the same claim a no-op.
func (r *repository) SweepExpiredLeases(ctx context.Context, now time.Time, limit int) ([]SweptLease, error) {
	var lapsed []RequestClaim
	err := r.db.WithContext(ctx).
		Where("(status = ? AND claim_expires_at <= ?) OR (status = ? AND completion_due_at IS NOT NULL AND completion_due_at <= ?)",
			StatusPendingCar, now, StatusCarSelected, now).
		Order("claim_expires_at ASC").
		Limit(limit).
		Find(&lapsed).Error
	if err != nil {
		return nil, err
	}

	var swept []SweptLease
	for i := range lapsed {
		claim := lapsed[i]
		var target requests.Status

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return r.reclaimLapsedLeaseTo(tx, &claim, now, &target)
		})
		if err != nil {
			if errors.Is(err, errSweepLost) {
				continue
			}
			// Partial pass; the remainder is retried on the next interval
			return swept, err
		}

		swept = append(swept, SweptLease{
			ClaimID:   claim.ID,
			RequestID: claim.RequestID,
			HostID:    claim.HostID,
			RequestTo: target,
		})
	}

	return swept, nil
}

// reclaimLapsedLease expires a lapsed live claim and reverts its request.
// Also invoked lazily from AssignVehicle when the caller's own lease elapsed.
func (r *repository) reclaimLapsedLease(tx *gorm.DB, claim *RequestClaim, now time.Time) error {
	var target requests.Status
	return r.reclaimLapsedLeaseTo(tx, claim, now, &target)
}

func (r *repository) reclaimLapsedLeaseTo(tx *gorm.DB, claim *RequestClaim, now time.Time, target *requests.Status) error {
	// Condition on the observed status: if a host action advanced the claim
	// in the meantime, zero rows means the sweep lost and must do nothing.
	result := tx.Model(&RequestClaim{}).
		Where("id = ? AND status = ?", claim.ID, claim.Status).
		Updates(map[string]interface{}{
			"status":     StatusExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errSweepLost
	}

	var request requests.ReservationRequest
	if err := tx.Where("id = ?", claim.RequestID).First(&request).Error; err != nil {
		return err
	}

	*target = requests.StatusOpen
	if !request.ExpiresAt.After(now) {
		*target = requests.StatusExpired
	}

	result = tx.Model(&requests.ReservationRequest{}).
		Where("id = ? AND status IN ?", claim.RequestID,
			[]requests.Status{requests.StatusClaimed, requests.StatusCarAssigned}).
		Updates(map[string]interface{}{
			"status":     *target,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: request %s not claimed under lapsed claim %s", ErrRequestOutOfSync, claim.RequestID, claim.ID)
	}

	return nil
}
