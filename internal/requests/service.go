package requests

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/constants"
	"github.com/itwhiprentals/itwhip-website-sub025/pkg/cache"
	"github.com/itwhiprentals/itwhip-website-sub025/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	SetCacheService(cacheService cache.Service)

	CreateRequest(ctx context.Context, req CreateRequestRequest) (*RequestResponse, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*RequestResponse, error)
	GetRequestByCode(ctx context.Context, code string) (*RequestResponse, error)
	ListOpenRequests(ctx context.Context, query ListQuery) (*PaginatedRequests, error)
	CancelRequest(ctx context.Context, id uuid.UUID) error

	// InvalidateRequestCaches clears every cached view touched by a request
	// transition. The claim engine calls this after each successful transition.
	InvalidateRequestCaches(ctx context.Context, requestID string)
}

type service struct {
	repo         Repository
	cacheService cache.Service
	log          *logger.Logger
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
		log:  logger.GetDefault(),
	}
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) CreateRequest(ctx context.Context, req CreateRequestRequest) (*RequestResponse, error) {
	if !req.ReturnAt.After(req.PickupAt) {
		return nil, errors.New("return time must be after pickup time")
	}
	if !req.ExpiresAt.After(time.Now()) {
		return nil, errors.New("expiry deadline must be in the future")
	}

	guestID, err := uuid.Parse(req.GuestID)
	if err != nil {
		return nil, fmt.Errorf("invalid guest ID: %w", err)
	}

	tier := req.PriorityTier
	if tier == "" {
		tier = "STANDARD"
	}

	request := &ReservationRequest{
		RequestCode:    generateRequestCode(),
		Status:         StatusOpen,
		VehicleType:    strings.ToUpper(req.VehicleType),
		MinSeats:       req.MinSeats,
		PickupLocation: req.PickupLocation,
		PickupAt:       req.PickupAt,
		ReturnAt:       req.ReturnAt,
		GuestID:        guestID,
		PriorityTier:   tier,
		IsNegotiable:   req.IsNegotiable,
		OfferedRate:    req.OfferedRate,
		TargetRate:     req.TargetRate,
		ExpiresAt:      req.ExpiresAt,
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// New OPEN request changes the browse surface
	s.invalidateOpenListings(ctx)

	response := request.ToResponse()
	return &response, nil
}

func (s *service) GetRequest(ctx context.Context, id uuid.UUID) (*RequestResponse, error) {
	// View counts are informational; never fail the read over the counter
	if err := s.repo.IncrementViewCount(ctx, id); err != nil && !errors.Is(err, ErrRequestNotFound) {
		s.log.DebugWithContext(ctx, "view count increment failed", map[string]interface{}{
			"request_id": id.String(),
			"error":      err.Error(),
		})
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := request.ToResponse()
	return &response, nil
}

func (s *service) GetRequestByCode(ctx context.Context, code string) (*RequestResponse, error) {
	request, err := s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}

	response := request.ToResponse()
	return &response, nil
}

func (s *service) ListOpenRequests(ctx context.Context, query ListQuery) (*PaginatedRequests, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	// Only the unfiltered pages are cached; filtered queries go to the database
	cacheable := query.VehicleType == "" && query.Tier == ""
	cacheKey := constants.BuildOpenRequestsKey(query.Page, query.Limit)

	if cacheable && s.cacheService != nil {
		var cached PaginatedRequests
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	results, totalCount, err := s.repo.ListOpen(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open requests: %w", err)
	}

	responses := make([]RequestResponse, len(results))
	for i, request := range results {
		responses[i] = request.ToResponse()
	}

	result := &PaginatedRequests{
		Requests:   responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(totalCount) / float64(query.Limit))),
	}

	if cacheable && s.cacheService != nil {
		if err := s.cacheService.Set(ctx, cacheKey, result, constants.TTL_DYNAMIC_SHORT); err != nil {
			s.log.DebugWithContext(ctx, "failed to cache open request list", map[string]interface{}{
				"key":   cacheKey,
				"error": err.Error(),
			})
		}
	}

	return result, nil
}

func (s *service) CancelRequest(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Cancel(ctx, id); err != nil {
		return err
	}

	s.InvalidateRequestCaches(ctx, id.String())
	return nil
}

func (s *service) InvalidateRequestCaches(ctx context.Context, requestID string) {
	if s.cacheService == nil {
		return
	}

	patterns := []string{
		constants.InvalidationPatternForRequest(requestID),
		constants.InvalidationPatternOpenListings(),
	}
	for _, pattern := range patterns {
		if err := s.cacheService.DeletePattern(ctx, pattern); err != nil {
			s.log.DebugWithContext(ctx, "cache invalidation failed", map[string]interface{}{
				"pattern": pattern,
				"error":   err.Error(),
			})
		}
	}
}

func (s *service) invalidateOpenListings(ctx context.Context) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.DeletePattern(ctx, constants.InvalidationPatternOpenListings()); err != nil {
		s.log.DebugWithContext(ctx, "cache invalidation failed", map[string]interface{}{
			"pattern": constants.InvalidationPatternOpenListings(),
			"error":   err.Error(),
		})
	}
}

// generateRequestCode builds the human-facing code shown to guests and hosts,
// e.g. REQ-9F3A21C4. Uniqueness is enforced by the column index.
func generateRequestCode() string {
	id := uuid.New().String()
	return "REQ-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}
