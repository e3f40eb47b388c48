package fleet

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFleetRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*Vehicle
}

func newFakeFleetRepo() *fakeFleetRepo {
	return &fakeFleetRepo{rows: make(map[uuid.UUID]*Vehicle)}
}

func (f *fakeFleetRepo) Create(ctx context.Context, vehicle *Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	f.rows[vehicle.ID] = vehicle
	return nil
}

func (f *fakeFleetRepo) GetByID(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, ErrVehicleNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeFleetRepo) ListByHost(ctx context.Context, hostID uuid.UUID) ([]Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []Vehicle
	for _, row := range f.rows {
		if row.HostID == hostID {
			result = append(result, *row)
		}
	}
	return result, nil
}

func (f *fakeFleetRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, ErrVehicleNotFound
	}
	if rate, ok := updates["daily_rate"]; ok {
		row.DailyRate = rate.(float64)
	}
	if active, ok := updates["is_active"]; ok {
		row.IsActive = active.(bool)
	}
	copied := *row
	return &copied, nil
}

func (f *fakeFleetRepo) IsOwnedActive(ctx context.Context, vehicleID, hostID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[vehicleID]
	return ok && row.HostID == hostID && row.IsActive, nil
}

func addVehicleRequest() CreateVehicleRequest {
	return CreateVehicleRequest{
		Make:         "Toyota",
		Model:        "Camry",
		Year:         2023,
		Seats:        5,
		VehicleType:  "sedan",
		LicensePlate: " az-1234 ",
		DailyRate:    62,
	}
}

func TestAddVehicle_NormalizesFields(t *testing.T) {
	svc := NewService(newFakeFleetRepo())

	resp, err := svc.AddVehicle(context.Background(), uuid.New(), addVehicleRequest())
	require.NoError(t, err)

	assert.Equal(t, "SEDAN", resp.VehicleType)
	assert.Equal(t, "AZ-1234", resp.LicensePlate)
	assert.True(t, resp.IsActive, "new vehicles start active")
}

func TestVerifyOwnership(t *testing.T) {
	repo := newFakeFleetRepo()
	svc := NewService(repo)

	hostID := uuid.New()
	created, err := svc.AddVehicle(context.Background(), hostID, addVehicleRequest())
	require.NoError(t, err)

	vehicleID := uuid.MustParse(created.ID)

	owned, err := svc.VerifyOwnership(context.Background(), vehicleID, hostID)
	require.NoError(t, err)
	assert.True(t, owned)

	// Another host's ID does not pass
	owned, err = svc.VerifyOwnership(context.Background(), vehicleID, uuid.New())
	require.NoError(t, err)
	assert.False(t, owned)

	// Deactivated vehicles are not assignable
	inactive := false
	_, err = svc.UpdateVehicle(context.Background(), hostID, vehicleID, UpdateVehicleRequest{IsActive: &inactive})
	require.NoError(t, err)

	owned, err = svc.VerifyOwnership(context.Background(), vehicleID, hostID)
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestUpdateVehicle_OwnershipEnforced(t *testing.T) {
	svc := NewService(newFakeFleetRepo())

	hostID := uuid.New()
	created, err := svc.AddVehicle(context.Background(), hostID, addVehicleRequest())
	require.NoError(t, err)

	rate := 70.0
	_, err = svc.UpdateVehicle(context.Background(), uuid.New(), uuid.MustParse(created.ID), UpdateVehicleRequest{DailyRate: &rate})
	assert.Error(t, err)

	updated, err := svc.UpdateVehicle(context.Background(), hostID, uuid.MustParse(created.ID), UpdateVehicleRequest{DailyRate: &rate})
	require.NoError(t, err)
	assert.Equal(t, rate, updated.DailyRate)
}
