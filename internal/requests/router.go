package requests

import (
	"github.com/itwhiprentals/itwhip-website-sub025/internal/hosts"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/config"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles reservation-request routes
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

// SetupRoutes registers all request routes
func (requestRouter *Router) SetupRoutes(rg *gin.RouterGroup) {
	requests := rg.Group("/requests")
	{
		// Intake surface; upstream guest auth is out of band here
		requests.POST("", requestRouter.controller.CreateRequest)
		requests.GET("/code/:code", requestRouter.controller.GetRequestByCode)

		// Host browse surface
		authed := requests.Group("")
		authed.Use(middleware.JWTAuthWithConfig(requestRouter.config))
		{
			authed.GET("/open", requestRouter.controller.ListOpenRequests)
			authed.GET("/:id", requestRouter.controller.GetRequest)
		}

		// Admin override
		admin := requests.Group("")
		admin.Use(middleware.JWTAuthWithConfig(requestRouter.config))
		admin.Use(middleware.RequireRoles(string(hosts.RoleAdmin)))
		{
			admin.POST("/:id/cancel", requestRouter.controller.CancelRequest)
		}
	}
}
