// README: Smoke cases; health, driver listing, validation, a full ride over websocket, single-ride gate, Redis mirror.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"ridesim/internal/modules/broadcast"
	"ridesim/internal/modules/driver"
	"ridesim/internal/modules/location"
	"ridesim/internal/types"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

var (
	smokePickup      = types.Point{Lat: 10.7769, Lng: 106.7009}
	smokeDestination = types.Point{Lat: 10.79, Lng: 106.71}
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
		defer r.redis.Close()
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		start := time.Now()
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		res.Latency = time.Since(start).Round(time.Millisecond)
		results = append(results, res)
		fmt.Printf("%-5s %s (%s)", res.Status, tc.Name, res.Latency)
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{Name: "API: health", Run: func(ctx context.Context, r *Runner) Result {
			code, _, err := r.do(ctx, http.MethodGet, base+"/health", nil)
			return expectStatus(code, err, http.StatusOK)
		}},
		{Name: "API: list drivers", Run: func(ctx context.Context, r *Runner) Result {
			drivers, err := r.drivers(ctx)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if len(drivers) == 0 {
				return Result{Status: statusFail, Note: "empty driver pool"}
			}
			return Result{Status: statusPass, Note: fmt.Sprintf("drivers=%d", len(drivers))}
		}},
		{Name: "API: book rejects malformed body", Run: func(ctx context.Context, r *Runner) Result {
			code, _, err := r.do(ctx, http.MethodPost, base+"/api/book", map[string]any{
				"currentLocation": map[string]any{"lat": "x"},
			})
			return expectStatus(code, err, http.StatusBadRequest)
		}},
		{Name: "Redis: GEO mirror holds the pool", Run: redisMirror},
		{Name: "Flow: book and follow ride over websocket", Run: fullRide},
		{Name: "Concurrency: single active ride", Run: concurrentBook},
	}
}

func (r *Runner) do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	return resp.StatusCode, out, err
}

func (r *Runner) drivers(ctx context.Context) ([]driver.Driver, error) {
	code, body, err := r.do(ctx, http.MethodGet, r.cfg.BaseURL+"/api/drivers", nil)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("status %d", code)
	}
	var resp struct {
		Drivers []driver.Driver `json:"drivers"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.Drivers, nil
}

func bookPayload() map[string]any {
	return map[string]any{"currentLocation": smokePickup, "destination": smokeDestination}
}

func expectStatus(code int, err error, want int) Result {
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if code != want {
		return Result{Status: statusFail, Note: fmt.Sprintf("status %d, want %d", code, want)}
	}
	return Result{Status: statusPass}
}

func redisMirror(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: statusSkip, Note: "redis not configured"}
	}
	drivers, err := r.drivers(ctx)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	store := location.NewStore(r.redis)
	for _, d := range drivers {
		_, ok, err := store.Position(ctx, d.ID)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if !ok {
			return Result{Status: statusFail, Note: fmt.Sprintf("%s missing from %s", d.ID, location.DriverGeoKey)}
		}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("mirrored=%d", len(drivers))}
}

func fullRide(ctx context.Context, r *Runner) Result {
	wsURL := "ws" + strings.TrimPrefix(r.cfg.BaseURL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return Result{Status: statusFail, Note: "dial: " + err.Error()}
	}
	defer conn.Close()

	code, body, err := r.do(ctx, http.MethodPost, r.cfg.BaseURL+"/api/book", bookPayload())
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if code != http.StatusOK {
		return Result{Status: statusFail, Note: fmt.Sprintf("book status %d: %s", code, body)}
	}

	_ = conn.SetReadDeadline(time.Now().Add(r.cfg.RideTimeout))
	updates := 0
	var statuses []string
	for len(statuses) < 2 {
		var msg broadcast.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return Result{Status: statusFail, Note: fmt.Sprintf("after %d updates: %v", updates, err)}
		}
		switch msg.Event {
		case broadcast.EventLocationUpdate:
			updates++
		case broadcast.EventRideStatus:
			var s broadcast.RideStatus
			if err := json.Unmarshal(msg.Data, &s); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			statuses = append(statuses, s.Message)
		}
	}
	if !strings.HasSuffix(statuses[0], "arrived at pickup") || !strings.HasSuffix(statuses[1], "arrived at destination") {
		return Result{Status: statusFail, Note: fmt.Sprintf("unexpected statuses %q", statuses)}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("updates=%d", updates)}
}

func concurrentBook(ctx context.Context, r *Runner) Result {
	// The previous ride closes its session just after the final status.
	time.Sleep(100 * time.Millisecond)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		succ int
		busy int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, _, err := r.do(ctx, http.MethodPost, r.cfg.BaseURL+"/api/book", bookPayload())
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch code {
			case http.StatusOK:
				succ++
			case http.StatusBadRequest:
				busy++
			}
		}()
	}
	wg.Wait()

	note := fmt.Sprintf("success=%d busy=%d", succ, busy)
	if succ == 1 {
		return Result{Status: statusPass, Note: note}
	}
	return Result{Status: statusFail, Note: note}
}
