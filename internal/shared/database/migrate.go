package database

import (
	"github.com/itwhiprentals/itwhip-website-sub025/internal/claims"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/fleet"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/hosts"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/requests"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&hosts.Host{},
		&fleet.Vehicle{},
		&requests.ReservationRequest{},
		&claims.RequestClaim{},
	)
}
