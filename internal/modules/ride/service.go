// README: Ride service books rides and owns the running simulation.
package ride

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ridesim/internal/modules/broadcast"
	"ridesim/internal/modules/driver"
	"ridesim/internal/modules/location"
	"ridesim/internal/modules/matching"
	"ridesim/internal/types"
)

type Config struct {
	TickInterval    time.Duration
	ArrivalMeters   float64
	DebugInvariants bool
}

type ServiceDeps struct {
	Drivers *driver.Registry
	Matcher *matching.Service
	Session *Session
	Events  broadcast.Broadcaster
	// SpeedFactor draws the per-ride convergence factor. Defaults to RandomSpeedFactor.
	SpeedFactor func() float64
	Config      Config
	Log         logrus.FieldLogger
}

type simulation struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type Service struct {
	root    context.Context
	drivers *driver.Registry
	matcher *matching.Service
	session *Session
	events  broadcast.Broadcaster
	speed   func() float64
	cfg     Config
	log     logrus.FieldLogger

	mu      sync.Mutex
	running *simulation
}

// NewService builds the booking service. Simulations run on ctx, not on the
// booking request's context, so they outlive the HTTP call.
func NewService(ctx context.Context, deps ServiceDeps) *Service {
	cfg := deps.Config
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.ArrivalMeters <= 0 {
		cfg.ArrivalMeters = DefaultArrivalMeters
	}
	speed := deps.SpeedFactor
	if speed == nil {
		speed = RandomSpeedFactor(nil)
	}
	events := deps.Events
	if events == nil {
		events = broadcast.Nop{}
	}
	session := deps.Session
	if session == nil {
		session = NewSession()
	}
	matcher := deps.Matcher
	if matcher == nil {
		matcher = matching.NewService(deps.Drivers)
	}
	var log logrus.FieldLogger = logrus.StandardLogger()
	if deps.Log != nil {
		log = deps.Log
	}
	return &Service{
		root:    ctx,
		drivers: deps.Drivers,
		matcher: matcher,
		session: session,
		events:  events,
		speed:   speed,
		cfg:     cfg,
		log:     log,
	}
}

// RandomSpeedFactor returns a goroutine-safe generator over [0.05, 0.55).
// A nil rng uses the global source.
func RandomSpeedFactor(rng *rand.Rand) func() float64 {
	if rng == nil {
		return func() float64 { return MinSpeedFactor + rand.Float64()*speedFactorSpan }
	}
	var mu sync.Mutex
	return func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return MinSpeedFactor + rng.Float64()*speedFactorSpan
	}
}

// Book matches the nearest driver to the pickup, opens the session and starts
// the simulation. Failed bookings leave registry and session untouched.
func (s *Service) Book(ctx context.Context, req Request) (driver.Driver, error) {
	if !req.Pickup.Valid() {
		return driver.Driver{}, fmt.Errorf("pickup %+v: %w", req.Pickup, ErrInvalidRequest)
	}
	if !req.Destination.Valid() {
		return driver.Driver{}, fmt.Errorf("destination %+v: %w", req.Destination, ErrInvalidRequest)
	}
	if _, busy := s.session.Active(); busy {
		return driver.Driver{}, ErrBusy
	}

	m, err := s.matcher.Nearest(req.Pickup)
	if err != nil {
		return driver.Driver{}, err
	}

	r := Ride{
		ID:          types.ID(uuid.NewString()),
		DriverID:    m.Driver.ID,
		DriverName:  m.Driver.Name,
		Pickup:      req.Pickup,
		Destination: req.Destination,
		Phase:       PhaseToPickup,
		SpeedFactor: s.speed(),
		StartedAt:   time.Now(),
	}
	if err := s.session.TryOpen(r); err != nil {
		return driver.Driver{}, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id":          r.ID,
		"driver_id":        r.DriverID,
		"driver_name":      r.DriverName,
		"pickup_cell":      location.Cell(r.Pickup),
		"destination_cell": location.Cell(r.Destination),
		"pickup_distance":  m.DistanceMeters,
	}).Info("ride booked")

	s.start(r)
	return m.Driver, nil
}

func (s *Service) start(r Ride) {
	sim := NewSimulator(r, s.drivers, s.session, s.events, SimulatorConfig{
		ArrivalMeters:   s.cfg.ArrivalMeters,
		DebugInvariants: s.cfg.DebugInvariants,
	}, s.log)

	ctx, cancel := context.WithCancel(s.root)
	run := &simulation{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.running = run
	s.mu.Unlock()

	go func() {
		defer close(run.done)
		defer cancel()
		sim.Run(ctx, s.cfg.TickInterval)
	}()
}

func (s *Service) Drivers() []driver.Driver {
	return s.drivers.List()
}

func (s *Service) Active() (Ride, bool) {
	return s.session.Active()
}

// Wait blocks until the most recently started simulation has exited.
func (s *Service) Wait() {
	s.mu.Lock()
	run := s.running
	s.mu.Unlock()
	if run != nil {
		<-run.done
	}
}

// Shutdown cancels the running simulation, if any, and waits for it.
func (s *Service) Shutdown() {
	s.mu.Lock()
	run := s.running
	s.mu.Unlock()
	if run != nil {
		run.cancel()
		<-run.done
	}
}
