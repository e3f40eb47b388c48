package hosts

import (
	"time"

	"github.com/google/uuid"
)

// Host is a fleet owner who claims reservation requests and assigns vehicles.
type Host struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	FirstName   string    `json:"first_name" gorm:"not null"`
	LastName    string    `json:"last_name" gorm:"not null"`
	CompanyName string    `json:"company_name"`
	Password    string    `json:"-" gorm:"not null"` // hide in json
	Role        Role      `json:"role" gorm:"not null;default:'HOST'"`
	Email       string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func IsValidRole(role string) bool {
	switch role {
	case string(RoleHost), string(RoleAdmin):
		return true
	default:
		return false
	}
}
