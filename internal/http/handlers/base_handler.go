// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridesim/internal/modules/matching"
	"ridesim/internal/modules/ride"
)

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Message: msg})
}

func writeRideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrInvalidRequest):
		writeError(c, http.StatusBadRequest, "Invalid pickup or destination coordinates")
	case errors.Is(err, ride.ErrBusy):
		writeError(c, http.StatusBadRequest, "A ride is already in progress")
	case errors.Is(err, matching.ErrNoDriver):
		writeError(c, http.StatusNotFound, "No drivers available")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
