package fleet

import (
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/config"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles fleet routes
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

// SetupRoutes registers all fleet routes (host authentication required)
func (fleetRouter *Router) SetupRoutes(rg *gin.RouterGroup) {
	fleet := rg.Group("/fleet")
	fleet.Use(middleware.JWTAuthWithConfig(fleetRouter.config))
	{
		fleet.POST("", fleetRouter.controller.AddVehicle)
		fleet.GET("", fleetRouter.controller.ListVehicles)
		fleet.GET("/:id", fleetRouter.controller.GetVehicle)
		fleet.PATCH("/:id", fleetRouter.controller.UpdateVehicle)
	}
}
