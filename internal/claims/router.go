package claims

import (
	"github.com/itwhiprentals/itwhip-website-sub025/internal/hosts"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/config"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles claim routes
type Router struct {
	controller *Controller
	config     *config.Config
}

func NewRouter(controller *Controller, cfg *config.Config) *Router {
	return &Router{
		controller: controller,
		config:     cfg,
	}
}

// SetupRoutes registers all claim routes (host authentication required)
func (claimRouter *Router) SetupRoutes(rg *gin.RouterGroup) {
	claims := rg.Group("/claims")
	claims.Use(middleware.JWTAuthWithConfig(claimRouter.config))
	{
		claims.POST("", claimRouter.controller.AttemptClaim)
		claims.GET("", claimRouter.controller.ListClaims)
		claims.GET("/:id", claimRouter.controller.GetClaim)
		claims.POST("/:id/vehicle", claimRouter.controller.AssignVehicle)
		claims.POST("/:id/complete", claimRouter.controller.CompleteClaim)
		claims.POST("/:id/withdraw", claimRouter.controller.WithdrawClaim)

		admin := claims.Group("")
		admin.Use(middleware.RequireRoles(string(hosts.RoleAdmin)))
		{
			admin.POST("/sweep", claimRouter.controller.TriggerSweep)
			admin.GET("/:id/live", claimRouter.controller.GetLiveClaim)
		}
	}
}
