// README: Smoke runner against a live server; executes HTTP/websocket/Redis checks and prints results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	runner := NewRunner(cfg)
	results := runner.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	pass, fail, skipped := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case statusPass:
			pass++
		case statusFail:
			fail++
		case statusSkip:
			skipped++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", pass, fail, skipped)

	if fail > 0 || (cfg.Strict && skipped > 0) {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL     string
	RedisAddr   string
	Strict      bool
	Timeout     time.Duration
	RideTimeout time.Duration
	Concurrency int
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("RIDESIM_SMOKE_BASE_URL", "http://localhost:5000"), "API base URL")
	flag.StringVar(&cfg.RedisAddr, "redis", os.Getenv("RIDESIM_REDIS_ADDR"), "Redis address (empty skips Redis checks)")
	flag.BoolVar(&cfg.Strict, "strict", false, "Fail on skipped checks")
	flag.DurationVar(&cfg.Timeout, "timeout", 3*time.Minute, "Total timeout")
	flag.DurationVar(&cfg.RideTimeout, "ride-timeout", 2*time.Minute, "Max wait for a ride to reach its destination")
	flag.IntVar(&cfg.Concurrency, "concurrency", 20, "Concurrent bookings for the single-ride check")
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
