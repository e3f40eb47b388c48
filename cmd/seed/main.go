package main

import (
	"fmt"
	"log"
	"time"

	"github.com/itwhiprentals/itwhip-website-sub025/internal/fleet"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/hosts"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/requests"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/config"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/database"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("Starting ItWhip database seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\nCleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("Database cleaned")

	fmt.Println("\nSeeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Println("\nSeeding completed. Database is ready for testing.")
	fmt.Println("  admin:  admin@itwhip.com / Admin@123")
	fmt.Println("  hosts:  host1@itwhip.com .. host3@itwhip.com / Host@123")
}

// CleanDatabase truncates all tables in dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"request_claims",
		"reservation_requests",
		"vehicles",
		"hosts",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

// SeedAll seeds hosts, their fleets and a spread of open requests
func (s *Seeder) SeedAll() error {
	hostIDs, err := s.SeedHosts()
	if err != nil {
		return fmt.Errorf("failed to seed hosts: %w", err)
	}
	fmt.Printf("  Seeded %d hosts\n", len(hostIDs))

	vehicleCount, err := s.SeedVehicles(hostIDs)
	if err != nil {
		return fmt.Errorf("failed to seed vehicles: %w", err)
	}
	fmt.Printf("  Seeded %d vehicles\n", vehicleCount)

	requestCount, err := s.SeedRequests()
	if err != nil {
		return fmt.Errorf("failed to seed reservation requests: %w", err)
	}
	fmt.Printf("  Seeded %d open reservation requests\n", requestCount)

	return nil
}

// SeedHosts creates an admin plus regular hosts
func (s *Seeder) SeedHosts() ([]uuid.UUID, error) {
	adminHash, err := bcrypt.GenerateFromPassword([]byte("Admin@123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hostHash, err := bcrypt.GenerateFromPassword([]byte("Host@123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	seedHosts := []hosts.Host{
		{
			FirstName:   "Ava",
			LastName:    "Operator",
			CompanyName: "ItWhip Operations",
			Email:       "admin@itwhip.com",
			Password:    string(adminHash),
			Role:        hosts.RoleAdmin,
			Phone:       "+16020000001",
		},
		{
			FirstName:   "Marcus",
			LastName:    "Delgado",
			CompanyName: "Desert Drive Rentals",
			Email:       "host1@itwhip.com",
			Password:    string(hostHash),
			Role:        hosts.RoleHost,
			Phone:       "+16020000002",
		},
		{
			FirstName:   "Priya",
			LastName:    "Raman",
			CompanyName: "Camelback Cars",
			Email:       "host2@itwhip.com",
			Password:    string(hostHash),
			Role:        hosts.RoleHost,
			Phone:       "+16020000003",
		},
		{
			FirstName:   "Jordan",
			LastName:    "Whitfield",
			CompanyName: "Scottsdale Wheels",
			Email:       "host3@itwhip.com",
			Password:    string(hostHash),
			Role:        hosts.RoleHost,
			Phone:       "+16020000004",
		},
	}

	var hostIDs []uuid.UUID
	for i := range seedHosts {
		seedHosts[i].ID = uuid.New()
		if err := s.db.PostgreSQL.Create(&seedHosts[i]).Error; err != nil {
			return nil, err
		}
		if seedHosts[i].Role == hosts.RoleHost {
			hostIDs = append(hostIDs, seedHosts[i].ID)
		}
	}

	return hostIDs, nil
}

// SeedVehicles gives each host a small mixed fleet
func (s *Seeder) SeedVehicles(hostIDs []uuid.UUID) (int, error) {
	type template struct {
		Make        string
		Model       string
		Year        int
		Seats       int
		VehicleType string
		DailyRate   float64
	}

	templates := []template{
		{"Toyota", "Camry", 2023, 5, "SEDAN", 62},
		{"Honda", "CR-V", 2022, 5, "SUV", 78},
		{"Ford", "Expedition", 2023, 8, "SUV", 129},
		{"Tesla", "Model 3", 2024, 5, "SEDAN", 95},
		{"Chrysler", "Pacifica", 2022, 7, "MINIVAN", 104},
	}

	count := 0
	for hi, hostID := range hostIDs {
		for ti, t := range templates {
			vehicle := fleet.Vehicle{
				ID:           uuid.New(),
				HostID:       hostID,
				Make:         t.Make,
				Model:        t.Model,
				Year:         t.Year,
				Seats:        t.Seats,
				VehicleType:  t.VehicleType,
				LicensePlate: fmt.Sprintf("AZ-%d%d%04d", hi+1, ti+1, 1000+hi*len(templates)+ti),
				DailyRate:    t.DailyRate,
				IsActive:     true,
			}
			if err := s.db.PostgreSQL.Create(&vehicle).Error; err != nil {
				return count, err
			}
			count++
		}
	}

	return count, nil
}

// SeedRequests creates open reservation requests with staggered deadlines
func (s *Seeder) SeedRequests() (int, error) {
	now := time.Now().UTC()

	type template struct {
		VehicleType    string
		MinSeats       int
		PickupLocation string
		Tier           string
		Negotiable     bool
		OfferedRate    float64
		TargetRate     float64
		PickupIn       time.Duration
		TripLength     time.Duration
		ExpiresIn      time.Duration
	}

	templates := []template{
		{"SEDAN", 4, "PHX Sky Harbor Terminal 4", "STANDARD", false, 65, 0, 26 * time.Hour, 72 * time.Hour, 2 * time.Hour},
		{"SUV", 7, "Scottsdale Fashion Square", "PRIORITY", true, 110, 95, 48 * time.Hour, 96 * time.Hour, 6 * time.Hour},
		{"SEDAN", 5, "Tempe ASU Campus", "STANDARD", true, 58, 50, 30 * time.Hour, 48 * time.Hour, 3 * time.Hour},
		{"MINIVAN", 7, "Mesa Gateway Airport", "VIP", false, 135, 0, 24 * time.Hour, 120 * time.Hour, 90 * time.Minute},
		{"SUV", 5, "Downtown Phoenix Convention Center", "STANDARD", false, 88, 0, 36 * time.Hour, 72 * time.Hour, 4 * time.Hour},
		{"SEDAN", 4, "Glendale Westgate", "PRIORITY", true, 70, 60, 40 * time.Hour, 24 * time.Hour, 5 * time.Hour},
	}

	count := 0
	for i, t := range templates {
		request := requests.ReservationRequest{
			ID:             uuid.New(),
			RequestCode:    fmt.Sprintf("REQ-SEED%04d", i+1),
			Status:         requests.StatusOpen,
			VehicleType:    t.VehicleType,
			MinSeats:       t.MinSeats,
			PickupLocation: t.PickupLocation,
			PickupAt:       now.Add(t.PickupIn),
			ReturnAt:       now.Add(t.PickupIn + t.TripLength),
			GuestID:        uuid.New(),
			PriorityTier:   t.Tier,
			IsNegotiable:   t.Negotiable,
			OfferedRate:    t.OfferedRate,
			TargetRate:     t.TargetRate,
			ExpiresAt:      now.Add(t.ExpiresIn),
		}
		if err := s.db.PostgreSQL.Create(&request).Error; err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}
