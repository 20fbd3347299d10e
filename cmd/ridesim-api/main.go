// README: Entry point; loads config, seeds the driver pool, wires services, serves HTTP until signalled.
package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ridesim/internal/config"
	httptransport "ridesim/internal/http"
	"ridesim/internal/infra"
	"ridesim/internal/modules/broadcast"
	"ridesim/internal/modules/driver"
	"ridesim/internal/modules/location"
	"ridesim/internal/modules/ride"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := infra.NewLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	drivers := driver.NewRegistry(driver.DefaultPool(rng, cfg.Simulation.DriverCount))
	log.WithFields(logrus.Fields{"drivers": drivers.Len(), "seed": seed}).Info("driver pool seeded")

	hub := broadcast.NewHub(log)
	events := broadcast.Fanout{hub}

	if cfg.Redis.Addr != "" {
		rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			log.WithError(err).Fatal("redis init")
		}
		defer rdb.Close()
		mirrorPool(ctx, rdb, drivers, log)
		events = append(events, broadcast.NewPublisher(rdb, log))
		log.WithField("addr", cfg.Redis.Addr).Info("redis publisher enabled")
	}

	rides := ride.NewService(ctx, ride.ServiceDeps{
		Drivers:     drivers,
		Events:      events,
		SpeedFactor: ride.RandomSpeedFactor(rand.New(rand.NewPCG(seed, seed+1))),
		Config: ride.Config{
			TickInterval:    cfg.Simulation.Tick,
			ArrivalMeters:   cfg.Simulation.ArrivalMeters,
			DebugInvariants: cfg.Simulation.DebugInvariants,
		},
		Log: log,
	})

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Rides: rides,
		WS:    hub.ServeWS,
		Log:   log,
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.HTTP.Addr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		rides.Shutdown()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

// mirrorPool writes the seeded positions into the Redis GEO set so external
// readers see every driver before the first ride moves one.
func mirrorPool(ctx context.Context, rdb *redis.Client, drivers *driver.Registry, log logrus.FieldLogger) {
	store := location.NewStore(rdb)
	for _, d := range drivers.List() {
		if err := store.SetGeo(ctx, d.ID, d.Location); err != nil {
			log.WithError(err).WithField("driver_id", d.ID).Warn("mirror driver position")
		}
	}
}
