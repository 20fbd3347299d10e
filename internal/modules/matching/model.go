// README: Matching result and errors.
package matching

import (
	"errors"

	"ridesim/internal/modules/driver"
)

var ErrNoDriver = errors.New("no driver available")

type Match struct {
	Driver         driver.Driver
	DistanceMeters float64
}
