package fleet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrVehicleNotFound = errors.New("vehicle not found")

type Repository interface {
	Create(ctx context.Context, vehicle *Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	ListByHost(ctx context.Context, hostID uuid.UUID) ([]Vehicle, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Vehicle, error)
	IsOwnedActive(ctx context.Context, vehicleID, hostID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, vehicle *Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	var vehicle Vehicle
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

func (r *repository) ListByHost(ctx context.Context, hostID uuid.UUID) ([]Vehicle, error) {
	var vehicles []Vehicle
	err := r.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&vehicles).Error
	return vehicles, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Vehicle, error) {
	result := r.db.WithContext(ctx).Model(&Vehicle{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrVehicleNotFound
	}
	return r.GetByID(ctx, id)
}

// IsOwnedActive reports whether the vehicle belongs to the host and is active.
// The claim engine consults this before a vehicle assignment.
func (r *repository) IsOwnedActive(ctx context.Context, vehicleID, hostID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Vehicle{}).
		Where("id = ? AND host_id = ? AND is_active = ?", vehicleID, hostID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
