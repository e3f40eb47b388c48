package fleet

import (
	"errors"
	"net/http"

	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func hostIDFromContext(ctx *gin.Context) (uuid.UUID, bool) {
	raw, exists := ctx.Get("host_id")
	if !exists {
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *Controller) AddVehicle(ctx *gin.Context) {
	hostID, ok := hostIDFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Host not authenticated", nil, nil)
		return
	}

	var req CreateVehicleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resp, err := c.service.AddVehicle(ctx.Request.Context(), hostID, req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to add vehicle", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Vehicle added", resp, nil)
}

func (c *Controller) ListVehicles(ctx *gin.Context) {
	hostID, ok := hostIDFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Host not authenticated", nil, nil)
		return
	}

	vehicles, err := c.service.ListHostVehicles(ctx.Request.Context(), hostID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list vehicles", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Vehicles retrieved", vehicles, nil)
}

func (c *Controller) GetVehicle(ctx *gin.Context) {
	vehicleID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid vehicle ID", nil, nil)
		return
	}

	resp, err := c.service.GetVehicle(ctx.Request.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, ErrVehicleNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Vehicle not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get vehicle", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Vehicle retrieved", resp, nil)
}

func (c *Controller) UpdateVehicle(ctx *gin.Context) {
	hostID, ok := hostIDFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Host not authenticated", nil, nil)
		return
	}

	vehicleID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid vehicle ID", nil, nil)
		return
	}

	var req UpdateVehicleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resp, err := c.service.UpdateVehicle(ctx.Request.Context(), hostID, vehicleID, req)
	if err != nil {
		if errors.Is(err, ErrVehicleNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Vehicle not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Failed to update vehicle", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Vehicle updated", resp, nil)
}
