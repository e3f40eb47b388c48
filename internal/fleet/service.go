package fleet

import (
	"context"
	"fmt"
	"strings"

	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/constants"
	"github.com/itwhiprentals/itwhip-website-sub025/pkg/cache"

	"github.com/google/uuid"
)

type Service interface {
	SetCacheService(cacheService cache.Service)

	AddVehicle(ctx context.Context, hostID uuid.UUID, req CreateVehicleRequest) (*VehicleResponse, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*VehicleResponse, error)
	ListHostVehicles(ctx context.Context, hostID uuid.UUID) ([]VehicleResponse, error)
	UpdateVehicle(ctx context.Context, hostID, vehicleID uuid.UUID, req UpdateVehicleRequest) (*VehicleResponse, error)

	// VerifyOwnership is the assignment-time check used by the claim engine:
	// the car must exist, belong to the host, and be active.
	VerifyOwnership(ctx context.Context, vehicleID, hostID uuid.UUID) (bool, error)
}

type service struct {
	repo         Repository
	cacheService cache.Service
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) AddVehicle(ctx context.Context, hostID uuid.UUID, req CreateVehicleRequest) (*VehicleResponse, error) {
	vehicle := &Vehicle{
		HostID:       hostID,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		Seats:        req.Seats,
		VehicleType:  strings.ToUpper(req.VehicleType),
		LicensePlate: strings.ToUpper(strings.TrimSpace(req.LicensePlate)),
		DailyRate:    req.DailyRate,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("failed to add vehicle: %w", err)
	}

	s.invalidateFleetCache(ctx, hostID)

	response := vehicle.ToResponse()
	return &response, nil
}

func (s *service) GetVehicle(ctx context.Context, id uuid.UUID) (*VehicleResponse, error) {
	vehicle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := vehicle.ToResponse()
	return &response, nil
}

func (s *service) ListHostVehicles(ctx context.Context, hostID uuid.UUID) ([]VehicleResponse, error) {
	cacheKey := constants.BuildHostFleetKey(hostID.String())

	if s.cacheService != nil {
		var cached []VehicleResponse
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	vehicles, err := s.repo.ListByHost(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	responses := make([]VehicleResponse, len(vehicles))
	for i, vehicle := range vehicles {
		responses[i] = vehicle.ToResponse()
	}

	if s.cacheService != nil {
		_ = s.cacheService.Set(ctx, cacheKey, responses, constants.TTL_STATIC_SHORT)
	}

	return responses, nil
}

func (s *service) UpdateVehicle(ctx context.Context, hostID, vehicleID uuid.UUID, req UpdateVehicleRequest) (*VehicleResponse, error) {
	vehicle, err := s.repo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.HostID != hostID {
		return nil, fmt.Errorf("vehicle does not belong to host")
	}

	updates := make(map[string]interface{})
	if req.DailyRate != nil {
		updates["daily_rate"] = *req.DailyRate
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		response := vehicle.ToResponse()
		return &response, nil
	}

	updated, err := s.repo.Update(ctx, vehicleID, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	s.invalidateFleetCache(ctx, hostID)

	response := updated.ToResponse()
	return &response, nil
}

func (s *service) VerifyOwnership(ctx context.Context, vehicleID, hostID uuid.UUID) (bool, error) {
	return s.repo.IsOwnedActive(ctx, vehicleID, hostID)
}

func (s *service) invalidateFleetCache(ctx context.Context, hostID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	_ = s.cacheService.Delete(ctx, constants.BuildHostFleetKey(hostID.String()))
}
