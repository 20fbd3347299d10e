// README: Ride aggregate, phase definitions, and booking errors.
package ride

import (
	"errors"
	"time"

	"ridesim/internal/types"
)

type Phase string

const (
	PhaseToPickup      Phase = "en_route_to_pickup"
	PhaseToDestination Phase = "en_route_to_destination"
)

// AllowedTransitions represents the ride phase flow as code.
var AllowedTransitions = map[Phase][]Phase{
	PhaseToPickup: {PhaseToDestination},
}

func CanTransition(from, to Phase) bool {
	for _, p := range AllowedTransitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

var (
	ErrInvalidRequest = errors.New("invalid booking request")
	ErrBusy           = errors.New("a ride is already in progress")
	ErrInvalidPhase   = errors.New("invalid phase transition")
)

const (
	DefaultTickInterval  = time.Second
	DefaultArrivalMeters = 10.0

	// Speed factors are drawn from [MinSpeedFactor, MinSpeedFactor+speedFactorSpan).
	MinSpeedFactor  = 0.05
	speedFactorSpan = 0.5
)

type Request struct {
	Pickup      types.Point
	Destination types.Point
}

// Ride references its driver by id; the registry keeps ownership of the record.
type Ride struct {
	ID          types.ID
	DriverID    types.ID
	DriverName  string
	Pickup      types.Point
	Destination types.Point
	Phase       Phase
	SpeedFactor float64
	StartedAt   time.Time
}

// Target is the point the driver is currently heading to.
func (r Ride) Target() types.Point {
	if r.Phase == PhaseToDestination {
		return r.Destination
	}
	return r.Pickup
}
