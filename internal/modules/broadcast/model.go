// README: Push-channel events and the Broadcaster capability used by the simulator.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"ridesim/internal/types"
)

const (
	EventLocationUpdate = "locationUpdate"
	EventRideStatus     = "rideStatus"
)

// Broadcaster notifies observers of simulation progress. Delivery is
// best-effort: implementations log and swallow transport failures.
type Broadcaster interface {
	LocationUpdate(ctx context.Context, u LocationUpdate)
	RideStatus(ctx context.Context, s RideStatus)
}

type LocationUpdate struct {
	DriverID types.ID    `json:"driverId"`
	Location types.Point `json:"location"`
}

type RideStatus struct {
	Message string `json:"message"`
}

// Message is the wire envelope shared by every transport.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", event, err)
	}
	return json.Marshal(Message{Event: event, Data: raw})
}

// Fanout forwards every event to each broadcaster in order.
type Fanout []Broadcaster

func (f Fanout) LocationUpdate(ctx context.Context, u LocationUpdate) {
	for _, b := range f {
		b.LocationUpdate(ctx, u)
	}
}

func (f Fanout) RideStatus(ctx context.Context, s RideStatus) {
	for _, b := range f {
		b.RideStatus(ctx, s)
	}
}

type Nop struct{}

func (Nop) LocationUpdate(context.Context, LocationUpdate) {}
func (Nop) RideStatus(context.Context, RideStatus)         {}
