// README: Movement simulator; moves the assigned driver toward its target each tick.
package ride

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ridesim/internal/modules/broadcast"
	"ridesim/internal/modules/driver"
	"ridesim/internal/modules/location"
	"ridesim/internal/types"
)

// Locations is the registry surface the simulator needs.
type Locations interface {
	Get(id types.ID) (driver.Driver, error)
	SetLocation(id types.ID, p types.Point) error
}

// Simulator is the only writer of its ride's driver location while it runs.
type Simulator struct {
	ride    Ride
	drivers Locations
	session *Session
	events  broadcast.Broadcaster
	log     logrus.FieldLogger

	arrivalMeters   float64
	debugInvariants bool
	ticks           int
}

type SimulatorConfig struct {
	ArrivalMeters float64
	// DebugInvariants turns invariant violations (unknown driver) into panics.
	DebugInvariants bool
}

func NewSimulator(r Ride, drivers Locations, session *Session, events broadcast.Broadcaster, cfg SimulatorConfig, log logrus.FieldLogger) *Simulator {
	if cfg.ArrivalMeters <= 0 {
		cfg.ArrivalMeters = DefaultArrivalMeters
	}
	r.Phase = PhaseToPickup
	return &Simulator{
		ride:            r,
		drivers:         drivers,
		session:         session,
		events:          events,
		arrivalMeters:   cfg.ArrivalMeters,
		debugInvariants: cfg.DebugInvariants,
		log: log.WithFields(logrus.Fields{
			"ride_id":   r.ID,
			"driver_id": r.DriverID,
		}),
	}
}

// Run ticks until the destination is reached or ctx is cancelled. The ride's
// session is closed on every exit path.
func (s *Simulator) Run(ctx context.Context, interval time.Duration) {
	task := StartPeriodic(ctx, interval, s.tick)
	defer s.session.Close(s.ride.ID)
	defer task.Stop()

	s.log.WithField("speed_factor", s.ride.SpeedFactor).Info("simulation started")
	<-task.Done()
	s.log.WithField("ticks", s.ticks).Info("simulation stopped")
}

// tick aborts the ride on any step failure. Only an unknown driver is fatal,
// and only with DebugInvariants; transport panics are always swallowed.
func (s *Simulator) tick(ctx context.Context) bool {
	done, err := s.safeStep(ctx)
	if err == nil {
		return done
	}
	if s.debugInvariants && errors.Is(err, driver.ErrNotFound) {
		panic(err)
	}
	s.log.WithError(err).Error("simulation step failed, aborting ride")
	return true
}

func (s *Simulator) safeStep(ctx context.Context) (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			done, err = true, fmt.Errorf("step panicked: %v", r)
		}
	}()
	return s.Step(ctx)
}

// Step performs one tick: move, broadcast the new location, then check arrival.
// It returns true once the destination has been reached.
func (s *Simulator) Step(ctx context.Context) (bool, error) {
	d, err := s.drivers.Get(s.ride.DriverID)
	if err != nil {
		return true, err
	}

	target := s.ride.Target()
	next := types.Point{
		Lat: d.Location.Lat + s.ride.SpeedFactor*(target.Lat-d.Location.Lat),
		Lng: d.Location.Lng + s.ride.SpeedFactor*(target.Lng-d.Location.Lng),
	}
	if err := s.drivers.SetLocation(s.ride.DriverID, next); err != nil {
		return true, err
	}
	s.ticks++

	s.events.LocationUpdate(ctx, broadcast.LocationUpdate{DriverID: s.ride.DriverID, Location: next})

	dist := location.DistanceMeters(next, target)
	s.log.WithFields(logrus.Fields{
		"phase":           s.ride.Phase,
		"distance_meters": dist,
		"tick":            s.ticks,
	}).Debug("driver moved")

	if dist >= s.arrivalMeters {
		return false, nil
	}

	if s.ride.Phase == PhaseToPickup {
		s.log.Info("driver arrived at pickup")
		s.events.RideStatus(ctx, broadcast.RideStatus{
			Message: fmt.Sprintf("Driver %s arrived at pickup", s.ride.DriverName),
		})
		if err := s.session.advance(s.ride.ID, PhaseToDestination); err != nil {
			s.log.WithError(err).Warn("session phase not updated")
		}
		s.ride.Phase = PhaseToDestination
		return false, nil
	}

	s.log.Info("driver arrived at destination")
	s.events.RideStatus(ctx, broadcast.RideStatus{
		Message: fmt.Sprintf("Driver %s arrived at destination", s.ride.DriverName),
	})
	return true, nil
}

func (s *Simulator) Phase() Phase {
	return s.ride.Phase
}

func (s *Simulator) Ticks() int {
	return s.ticks
}
