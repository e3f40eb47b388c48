package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// Belt and braces behind the conditional transitions: the database itself
	// refuses a second live claim on the same request.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_live_claim_per_request
		ON request_claims (request_id)
		WHERE status IN ('PENDING_CAR', 'CAR_SELECTED');
	`).Error
	if err != nil {
		return err
	}

	// Sweeper scan: lapsed PENDING_CAR leases
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_request_claims_lease_sweep
		ON request_claims (claim_expires_at)
		WHERE status = 'PENDING_CAR';
	`).Error
	if err != nil {
		return err
	}

	// Sweeper scan: CAR_SELECTED claims past their completion deadline
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_request_claims_completion_sweep
		ON request_claims (completion_due_at)
		WHERE status = 'CAR_SELECTED';
	`).Error
	if err != nil {
		return err
	}

	// Browse surface: open requests ordered by deadline
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservation_requests_open_browse
		ON reservation_requests (expires_at)
		WHERE status = 'OPEN';
	`).Error
	if err != nil {
		return err
	}

	return nil
}
