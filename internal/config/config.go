// README: Config loader with env defaults for HTTP, logging, Redis, and simulation settings.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type SimulationConfig struct {
	DriverCount     int
	Seed            uint64
	Tick            time.Duration
	ArrivalMeters   float64
	DebugInvariants bool
}

type Config struct {
	HTTP struct {
		Addr string
	}
	Log struct {
		Level  string
		Format string
	}
	Redis struct {
		// Addr empty disables the Redis publisher.
		Addr string
	}
	Simulation SimulationConfig
}

func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("RIDESIM_LOG_LEVEL", "info")
	v.SetDefault("RIDESIM_LOG_FORMAT", "json")
	v.SetDefault("RIDESIM_DRIVER_COUNT", 24)
	v.SetDefault("RIDESIM_SEED", 0)
	v.SetDefault("RIDESIM_TICK_MS", 1000)
	v.SetDefault("RIDESIM_ARRIVAL_METERS", 10.0)
	v.SetDefault("RIDESIM_REDIS_ADDR", "")
	v.SetDefault("RIDESIM_DEBUG_INVARIANTS", false)
	v.AutomaticEnv()

	var cfg Config
	cfg.HTTP.Addr = ":" + v.GetString("PORT")
	cfg.Log.Level = v.GetString("RIDESIM_LOG_LEVEL")
	cfg.Log.Format = v.GetString("RIDESIM_LOG_FORMAT")
	cfg.Redis.Addr = v.GetString("RIDESIM_REDIS_ADDR")
	cfg.Simulation.DriverCount = v.GetInt("RIDESIM_DRIVER_COUNT")
	cfg.Simulation.Seed = v.GetUint64("RIDESIM_SEED")
	cfg.Simulation.Tick = time.Duration(v.GetInt("RIDESIM_TICK_MS")) * time.Millisecond
	cfg.Simulation.ArrivalMeters = v.GetFloat64("RIDESIM_ARRIVAL_METERS")
	cfg.Simulation.DebugInvariants = v.GetBool("RIDESIM_DEBUG_INVARIANTS")

	if cfg.Simulation.DriverCount < 0 {
		return Config{}, fmt.Errorf("RIDESIM_DRIVER_COUNT must be >= 0, got %d", cfg.Simulation.DriverCount)
	}
	if cfg.Simulation.Tick <= 0 {
		return Config{}, fmt.Errorf("RIDESIM_TICK_MS must be > 0, got %s", cfg.Simulation.Tick)
	}
	if cfg.Simulation.ArrivalMeters <= 0 {
		return Config{}, fmt.Errorf("RIDESIM_ARRIVAL_METERS must be > 0, got %v", cfg.Simulation.ArrivalMeters)
	}
	return cfg, nil
}
