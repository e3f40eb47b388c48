package requests

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

// CreateRequest handles the intake surface: a new OPEN reservation request
func (c *Controller) CreateRequest(ctx *gin.Context) {
	var req CreateRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resp, err := c.service.CreateRequest(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to create reservation request", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Reservation request created", resp, nil)
}

// ListOpenRequests returns the claimable browse surface for hosts
func (c *Controller) ListOpenRequests(ctx *gin.Context) {
	var query ListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.ListOpenRequests(ctx.Request.Context(), query)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list open requests", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Open requests retrieved", result, nil)
}

// GetRequest returns a single request and bumps its view counter
func (c *Controller) GetRequest(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request ID", nil, nil)
		return
	}

	resp, err := c.service.GetRequest(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Reservation request not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get reservation request", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservation request retrieved", resp, nil)
}

// GetRequestByCode looks up a request by its human-facing code
func (c *Controller) GetRequestByCode(ctx *gin.Context) {
	code := ctx.Param("code")
	if code == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Request code is required", nil, nil)
		return
	}

	resp, err := c.service.GetRequestByCode(ctx.Request.Context(), code)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Reservation request not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get reservation request", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservation request retrieved", resp, nil)
}

// CancelRequest is the admin override moving any pre-terminal request to CANCELLED
func (c *Controller) CancelRequest(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request ID", nil, nil)
		return
	}

	if err := c.service.CancelRequest(ctx.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Reservation request not found", nil, nil)
		case errors.Is(err, ErrRequestTerminal):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Reservation request is already terminal", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to cancel reservation request", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservation request cancelled", nil, nil)
}
