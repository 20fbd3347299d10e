// README: Ride handlers for booking.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridesim/internal/modules/driver"
	"ridesim/internal/modules/ride"
	"ridesim/internal/types"
)

type Booker interface {
	Book(ctx context.Context, req ride.Request) (driver.Driver, error)
}

type RideHandler struct {
	rides Booker
}

func NewRideHandler(rides Booker) *RideHandler {
	return &RideHandler{rides: rides}
}

// Pointers so a missing coordinate is told apart from a zero one.
type pointReq struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

func (p *pointReq) point() types.Point {
	return types.Point{Lat: *p.Lat, Lng: *p.Lng}
}

type bookReq struct {
	CurrentLocation *pointReq `json:"currentLocation" binding:"required"`
	Destination     *pointReq `json:"destination" binding:"required"`
}

type bookResp struct {
	Message string        `json:"message"`
	Driver  driver.Driver `json:"driver"`
}

func (h *RideHandler) Book(c *gin.Context) {
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid pickup or destination coordinates")
		return
	}
	d, err := h.rides.Book(c.Request.Context(), ride.Request{
		Pickup:      req.CurrentLocation.point(),
		Destination: req.Destination.point(),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookResp{Message: "Booking confirmed", Driver: d})
}
