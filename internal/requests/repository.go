package requests

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRequestNotFound = errors.New("reservation request not found")
	ErrRequestTerminal = errors.New("reservation request is in a terminal status")
)

type Repository interface {
	Create(ctx context.Context, request *ReservationRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*ReservationRequest, error)
	GetByCode(ctx context.Context, code string) (*ReservationRequest, error)
	ListOpen(ctx context.Context, query ListQuery) ([]ReservationRequest, int64, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID) error
	ExpireOverdueOpen(ctx context.Context, now time.Time, limit int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, request *ReservationRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*ReservationRequest, error) {
	var request ReservationRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*ReservationRequest, error) {
	var request ReservationRequest
	err := r.db.WithContext(ctx).Where("request_code = ?", code).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListOpen(ctx context.Context, query ListQuery) ([]ReservationRequest, int64, error) {
	var results []ReservationRequest
	var totalCount int64

	db := r.db.WithContext(ctx).Model(&ReservationRequest{}).
		Where("status = ? AND expires_at > ?", StatusOpen, time.Now())

	if query.VehicleType != "" {
		db = db.Where("vehicle_type = ?", query.VehicleType)
	}
	if query.Tier != "" {
		db = db.Where("priority_tier = ?", query.Tier)
	}

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	offset := (query.Page - 1) * query.Limit

	err := db.Order("expires_at ASC").
		Offset(offset).
		Limit(query.Limit).
		Find(&results).Error

	return results, totalCount, err
}

// IncrementViewCount bumps the view counter in a single UPDATE so concurrent
// reads never lose increments.
func (r *repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&ReservationRequest{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// Cancel is the administrative override: any pre-terminal request moves to
// CANCELLED. The status guard in the WHERE clause keeps the write atomic with
// respect to concurrent claim transitions.
func (r *repository) Cancel(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&ReservationRequest{}).
		Where("id = ? AND status NOT IN ?", id,
			[]Status{StatusFulfilled, StatusExpired, StatusCancelled}).
		Updates(map[string]interface{}{
			"status":     StatusCancelled,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish missing from already-terminal for the caller
		var count int64
		if err := r.db.WithContext(ctx).Model(&ReservationRequest{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrRequestNotFound
		}
		return ErrRequestTerminal
	}
	return nil
}

// ExpireOverdueOpen flips a batch of overdue OPEN requests to EXPIRED and
// returns how many rows were affected. The status condition makes repeated
// passes over the same rows no-ops.
func (r *repository) ExpireOverdueOpen(ctx context.Context, now time.Time, limit int) (int64, error) {
	sub := r.db.WithContext(ctx).Model(&ReservationRequest{}).
		Select("id").
		Where("status = ? AND expires_at <= ?", StatusOpen, now).
		Limit(limit)

	result := r.db.WithContext(ctx).Model(&ReservationRequest{}).
		Where("id IN (?) AND status = ?", sub, StatusOpen).
		Updates(map[string]interface{}{
			"status":     StatusExpired,
			"updated_at": now,
		})

	return result.RowsAffected, result.Error
}
