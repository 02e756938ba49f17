package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/auth"
	"rideshare/internal/domain"
	"rideshare/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	PickupLocation string `json:"pickupLocation" binding:"required"`
	DropLocation   string `json:"dropLocation" binding:"required"`
}

// RideResponse is the wire form of a ride. DriverID is null until accepted.
type RideResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	DriverID       *string    `json:"driverId"`
	PickupLocation string     `json:"pickupLocation"`
	DropLocation   string     `json:"dropLocation"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	AcceptedAt     *time.Time `json:"acceptedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

func toRideResponse(r *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:             r.ID,
		UserID:         r.UserID,
		PickupLocation: r.PickupLocation,
		DropLocation:   r.DropLocation,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt,
	}
	if r.HasDriver() {
		driverID := r.DriverID
		resp.DriverID = &driverID
	}
	if !r.AcceptedAt.IsZero() {
		t := r.AcceptedAt
		resp.AcceptedAt = &t
	}
	if !r.CompletedAt.IsZero() {
		t := r.CompletedAt
		resp.CompletedAt = &t
	}
	return resp
}

func toRideResponses(rides []*domain.Ride) []RideResponse {
	out := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		out = append(out, toRideResponse(r))
	}
	return out
}

// CreateRide handles POST /api/v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, http.StatusBadRequest, "pickupLocation and dropLocation are required")
		return
	}

	ride, err := h.rideService.RequestRide(c.Request.Context(), principal, req.PickupLocation, req.DropLocation)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /api/v1/rides/:rideId
func (h *RideHandler) GetRide(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), principal, c.Param("rideId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CompleteRide handles POST /api/v1/rides/:rideId/complete
func (h *RideHandler) CompleteRide(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	ride, err := h.rideService.CompleteRide(c.Request.Context(), principal, c.Param("rideId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// ListUserRides handles GET /api/v1/user/rides
func (h *RideHandler) ListUserRides(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	rides, err := h.rideService.ListRidesForUser(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

// ListPendingRides handles GET /api/v1/driver/rides/requests
func (h *RideHandler) ListPendingRides(c *gin.Context) {
	rides, err := h.rideService.ListPendingRides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

// ListDriverRides handles GET /api/v1/driver/rides
func (h *RideHandler) ListDriverRides(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	rides, err := h.rideService.ListRidesForDriver(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

// AcceptRide handles POST /api/v1/driver/rides/:rideId/accept
func (h *RideHandler) AcceptRide(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	ride, err := h.rideService.AcceptRide(c.Request.Context(), principal, c.Param("rideId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// principalOrAbort returns the principal set by the auth middleware.
func principalOrAbort(c *gin.Context) (domain.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, http.StatusUnauthorized, "authentication required")
		return domain.Principal{}, false
	}
	return principal, true
}
