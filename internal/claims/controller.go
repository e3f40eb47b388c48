package claims

import (
	"errors"
	"net/http"

	"github.com/itwhiprentals/itwhip-website-sub025/internal/requests"
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

// rejectionStatus maps domain rejections to HTTP codes. Race-lost rejections
// are conflicts worth retrying, expired things are gone, ownership is
// forbidden.
func rejectionStatus(reason RejectReason) int {
	switch reason {
	case ReasonNotOwner:
		return http.StatusForbidden
	case ReasonRequestExpired, ReasonTerminal, ReasonLeaseExpired:
		return http.StatusGone
	default:
		return http.StatusConflict
	}
}

func (c *Controller) respondClaimError(ctx *gin.Context, err error) {
	if rejected, ok := AsRejection(err); ok {
		response.RespondJSON(ctx, "error", rejectionStatus(rejected.Reason), "Claim operation rejected",
			ClaimRejectedResponse{Reason: rejected.Reason, Message: rejected.Message}, nil)
		return
	}

	switch {
	case errors.Is(err, ErrClaimNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Claim not found", nil, nil)
	case errors.Is(err, requests.ErrRequestNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Reservation request not found", nil, nil)
	case errors.Is(err, ErrVehicleNotEligible):
		response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Vehicle is not eligible for assignment", nil, nil)
	case errors.Is(err, ErrInvalidTransition):
		response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Invalid claim transition", nil, err.Error())
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Claim operation failed", nil, nil)
	}
}

// AttemptClaim races for the exclusive lease on an open request
func (c *Controller) AttemptClaim(ctx *gin.Context) {
	hostID, ok := hostIDFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Host not authenticated", nil, nil)
		return
	}

	var req AttemptClaimRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request ID", nil, nil)
		return
	}

	resp, err := c.service.AttemptClaim(ctx.Request.Context(), requestID, hostID, req.OfferedRate)
	if err != nil {
		c.respondClaimError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Claim won", resp, nil)
}

// AssignVehicle advances a PENDING_CAR claim within its lease window
func (c *Controller) AssignVehicle(ctx *gin.Context) {
	hostID, ok := hostIDFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Host not authenticated", nil, nil)
		return
	}

	claimID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid claim ID", nil, nil)
		return
	}

	var req AssignVehicleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	carID, err := uuid.Parse(req.CarID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid car ID", nil, nil)
		return
	}

	resp, err := c.service.AssignVehicle(ctx.Request.Context(), claimID, hostID, carID)
	if err != nil {
		c.respondClaimError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Vehicle assigned", resp, nil)
}

// CompleteClaim finalizes a CAR_SELECTED claim and fulfills the request
func (c *Controller) CompleteClaim(ctx *gin.Context) {
	hostID, ok := hostIDFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Host not authenticated", nil, nil)
		return
	}

	claimID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid claim ID", nil, nil)
		return
	}

	resp, err := c.service.CompleteClaim(ctx.Request.Context(), claimID, hostID)
	if err != nil {
		c.respondClaimError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Claim completed", resp, nil)
}

// WithdrawClaim voluntarily releases a live claim, reopening the request
func (c *Controller) WithdrawClaim(ctx *gin.Context) {
	hostID, ok := hostIDFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Host not authenticated", nil, nil)
		return
	}

	claimID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid claim ID", nil, nil)
		return
	}

	resp, err := c.service.WithdrawClaim(ctx.Request.Context(), claimID, hostID)
	if err != nil {
		c.respondClaimError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Claim withdrawn", resp, nil)
}

// GetClaim returns one of the caller's claims
func (c *Controller) GetClaim(ctx *gin.Context) {
	hostID, ok := hostIDFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Host not authenticated", nil, nil)
		return
	}

	claimID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid claim ID", nil, nil)
		return
	}

	resp, err := c.service.GetClaim(ctx.Request.Context(), claimID, hostID)
	if err != nil {
		c.respondClaimError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Claim retrieved", resp, nil)
}

// ListClaims returns the caller's claim history, live and terminal
func (c *Controller) ListClaims(ctx *gin.Context) {
	hostID, ok := hostIDFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Host not authenticated", nil, nil)
		return
	}

	claimList, err := c.service.ListHostClaims(ctx.Request.Context(), hostID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list claims", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Claims retrieved", claimList, nil)
}

// GetLiveClaim returns the claim currently holding a request (admin only).
// The path parameter is the request ID, not a claim ID.
func (c *Controller) GetLiveClaim(ctx *gin.Context) {
	requestID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request ID", nil, nil)
		return
	}

	resp, err := c.service.GetLiveClaimForRequest(ctx.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, ErrClaimNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Request has no live claim", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get live claim", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Live claim retrieved", resp, nil)
}

// TriggerSweep runs one sweeper pass on demand (admin only)
func (c *Controller) TriggerSweep(ctx *gin.Context) {
	result, err := c.service.SweepOnce(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Sweep pass failed", result, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Sweep pass completed", result, nil)
}
