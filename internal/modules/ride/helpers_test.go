package ride

import (
	"context"
	"sync"

	"ridesim/internal/modules/broadcast"
	"ridesim/internal/types"
)

type event struct {
	kind   string
	update broadcast.LocationUpdate
	status broadcast.RideStatus
}

// recorder is an in-memory Broadcaster that keeps events in emission order.
type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) LocationUpdate(_ context.Context, u broadcast.LocationUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind: broadcast.EventLocationUpdate, update: u})
}

func (r *recorder) RideStatus(_ context.Context, s broadcast.RideStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind: broadcast.EventRideStatus, status: s})
}

func (r *recorder) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) statuses() []string {
	var out []string
	for _, e := range r.snapshot() {
		if e.kind == broadcast.EventRideStatus {
			out = append(out, e.status.Message)
		}
	}
	return out
}

type panickingBroadcaster struct{}

func (panickingBroadcaster) LocationUpdate(context.Context, broadcast.LocationUpdate) {
	panic("transport exploded")
}
func (panickingBroadcaster) RideStatus(context.Context, broadcast.RideStatus) {}

// northOf returns a point roughly meters north of p along its meridian.
func northOf(p types.Point, meters float64) types.Point {
	return types.Point{Lat: p.Lat + meters/111194.93, Lng: p.Lng}
}

func fixedSpeed(f float64) func() float64 {
	return func() float64 { return f }
}
