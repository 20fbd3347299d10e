// README: Driver record and registry errors.
package driver

import (
	"errors"

	"ridesim/internal/types"
)

var ErrNotFound = errors.New("driver not found")

type Driver struct {
	ID       types.ID    `json:"id"`
	Name     string      `json:"name"`
	Location types.Point `json:"location"`
}

const (
	// DefaultCount is one driver per letter of the Vietnamese alphabet.
	DefaultCount = 24
	// seedOffsetDeg bounds seeded positions to center +- 0.05 degrees (~5.5km).
	seedOffsetDeg = 0.05
)

// DefaultCenter is the seeding center (Ho Chi Minh City, District 1).
var DefaultCenter = types.Point{Lat: 10.7769, Lng: 106.7009}
