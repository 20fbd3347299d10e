// README: Driver handlers (pool listing).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridesim/internal/modules/driver"
)

type DriverLister interface {
	Drivers() []driver.Driver
}

type DriverHandler struct {
	drivers DriverLister
}

func NewDriverHandler(drivers DriverLister) *DriverHandler {
	return &DriverHandler{drivers: drivers}
}

func (h *DriverHandler) List(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"drivers": h.drivers.Drivers()})
}
