// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"github.com/itwhiprentals/itwhip-website-sub025/internal/auth"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/claims"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/fleet"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/notifications"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/requests"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/config"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/database"
	"github.com/itwhiprentals/itwhip-website-sub025/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config       *config.Config
	db           *database.DB
	cacheService cache.Service
	notifier     notifications.EventNotifier

	// Cross-feature wiring targets
	requestsRepo    requests.Repository
	requestsService requests.Service
	fleetService    fleet.Service
	claimService    claims.Service
	sweeper         *claims.Sweeper
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, cacheService cache.Service, notifier notifications.EventNotifier) *Router {
	return &Router{
		config:       cfg,
		db:           db,
		cacheService: cacheService,
		notifier:     notifier,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)

		// Fleet and requests come first: the claim engine verifies vehicle
		// ownership through the fleet service and invalidates browse caches
		// through the requests service.
		r.setupFleetRoutes(api)
		r.setupRequestRoutes(api)
		r.setupClaimRoutes(api)
	}

	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)
}

// Sweeper returns the lease sweeper so main can manage its lifecycle
func (r *Router) Sweeper() *claims.Sweeper {
	return r.sweeper
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "itwhip-claim-engine",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "itwhip-claim-engine",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		status := gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		}
		if r.sweeper != nil {
			status["sweeper"] = r.sweeper.Status()
		}
		c.JSON(http.StatusOK, status)
	})
}

// setupAuthRoutes configures host authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController, r.config)

	authRouter.SetupRoutes(rg)
}

// setupFleetRoutes configures host vehicle management routes
func (r *Router) setupFleetRoutes(rg *gin.RouterGroup) {
	fleetRepo := fleet.NewRepository(r.db.GetPostgreSQL())
	fleetService := fleet.NewService(fleetRepo)
	if r.cacheService != nil {
		fleetService.SetCacheService(r.cacheService)
	}
	fleetController := fleet.NewController(fleetService)
	fleetRouter := fleet.NewRouter(fleetController, r.config)

	r.fleetService = fleetService

	fleetRouter.SetupRoutes(rg)
}

// setupRequestRoutes configures reservation request routes
func (r *Router) setupRequestRoutes(rg *gin.RouterGroup) {
	requestsRepo := requests.NewRepository(r.db.GetPostgreSQL())
	requestsService := requests.NewService(requestsRepo)
	if r.cacheService != nil {
		requestsService.SetCacheService(r.cacheService)
	}
	requestsController := requests.NewController(requestsService)
	requestsRouter := requests.NewRouter(requestsController, r.config)

	r.requestsRepo = requestsRepo
	r.requestsService = requestsService

	requestsRouter.SetupRoutes(rg)
}

// setupClaimRoutes configures the claim engine routes and wires its
// collaborators in
func (r *Router) setupClaimRoutes(rg *gin.RouterGroup) {
	claimRepo := claims.NewRepository(r.db.GetPostgreSQL())
	claimService := claims.NewService(claimRepo, r.config.Claim)

	if r.cacheService != nil {
		claimService.SetCacheService(r.cacheService)
	}
	if r.notifier != nil {
		claimService.SetNotifier(r.notifier)
	}
	claimService.SetVehicleVerifier(r.fleetService)
	claimService.SetRequestInvalidator(r.requestsService)
	claimService.SetOpenRequestExpirer(r.requestsRepo)

	claimController := claims.NewController(claimService)
	claimRouter := claims.NewRouter(claimController, r.config)

	r.claimService = claimService
	r.sweeper = claims.NewSweeper(claimService, r.config.Claim)

	claimRouter.SetupRoutes(rg)
}
