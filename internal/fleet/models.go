package fleet

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle is a host-owned car that can be assigned to a claimed request.
type Vehicle struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	HostID       uuid.UUID `json:"host_id" gorm:"type:uuid;not null;index"`
	Make         string    `json:"make" gorm:"not null;size:50"`
	Model        string    `json:"model" gorm:"not null;size:50"`
	Year         int       `json:"year" gorm:"not null;check:year >= 1990"`
	Seats        int       `json:"seats" gorm:"not null;default:5;check:seats > 0"`
	VehicleType  string    `json:"vehicle_type" gorm:"not null;size:50;index"`
	LicensePlate string    `json:"license_plate" gorm:"not null;uniqueIndex;size:20"`
	DailyRate    float64   `json:"daily_rate" gorm:"not null;check:daily_rate >= 0"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type VehicleResponse struct {
	ID           string    `json:"id"`
	HostID       string    `json:"host_id"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	Seats        int       `json:"seats"`
	VehicleType  string    `json:"vehicle_type"`
	LicensePlate string    `json:"license_plate"`
	DailyRate    float64   `json:"daily_rate"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateVehicleRequest struct {
	Make         string  `json:"make" binding:"required,min=2,max=50"`
	Model        string  `json:"model" binding:"required,min=1,max=50"`
	Year         int     `json:"year" binding:"required,min=1990,max=2100"`
	Seats        int     `json:"seats" binding:"required,min=1,max=20"`
	VehicleType  string  `json:"vehicle_type" binding:"required,min=2,max=50"`
	LicensePlate string  `json:"license_plate" binding:"required,min=2,max=20"`
	DailyRate    float64 `json:"daily_rate" binding:"required,min=0"`
}

type UpdateVehicleRequest struct {
	DailyRate *float64 `json:"daily_rate" binding:"omitempty,min=0"`
	IsActive  *bool    `json:"is_active"`
}

func (v *Vehicle) ToResponse() VehicleResponse {
	return VehicleResponse{
		ID:           v.ID.String(),
		HostID:       v.HostID.String(),
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		Seats:        v.Seats,
		VehicleType:  v.VehicleType,
		LicensePlate: v.LicensePlate,
		DailyRate:    v.DailyRate,
		IsActive:     v.IsActive,
		CreatedAt:    v.CreatedAt,
	}
}

// TableName specifies the table name for GORM
func (Vehicle) TableName() string {
	return "vehicles"
}
