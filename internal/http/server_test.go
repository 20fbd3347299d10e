package http

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridesim/internal/modules/broadcast"
	"ridesim/internal/modules/driver"
	"ridesim/internal/modules/location"
	"ridesim/internal/modules/ride"
	"ridesim/internal/types"
)

var (
	pickup      = types.Point{Lat: 10.7769, Lng: 106.7009}
	destination = types.Point{Lat: 10.79, Lng: 106.71}
	bookBody    = `{"currentLocation":{"lat":10.7769,"lng":106.7009},"destination":{"lat":10.79,"lng":106.71}}`
)

type testEnv struct {
	srv   *httptest.Server
	rides *ride.Service
	reg   *driver.Registry
	hub   *broadcast.Hub
}

func newTestEnv(t *testing.T, drivers []driver.Driver, tick time.Duration) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := logtest.NewNullLogger()

	ctx, cancel := context.WithCancel(context.Background())
	hub := broadcast.NewHub(log)
	reg := driver.NewRegistry(drivers)
	rides := ride.NewService(ctx, ride.ServiceDeps{
		Drivers:     reg,
		Events:      hub,
		SpeedFactor: func() float64 { return 0.5 },
		Config:      ride.Config{TickInterval: tick},
		Log:         log,
	})
	srv := httptest.NewServer(NewServer(ServerDeps{Rides: rides, WS: hub.ServeWS, Log: log}).Routes())
	t.Cleanup(func() {
		cancel()
		rides.Shutdown()
		hub.Close()
		srv.Close()
	})
	return &testEnv{srv: srv, rides: rides, reg: reg, hub: hub}
}

func (e *testEnv) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(e.srv.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRoutes_Health(t *testing.T) {
	env := newTestEnv(t, nil, time.Hour)
	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutes_ServedWithAndWithoutPrefix(t *testing.T) {
	env := newTestEnv(t, []driver.Driver{{ID: "driver1", Name: "A Anh", Location: pickup}}, time.Hour)
	for _, path := range []string{"/api/drivers", "/drivers"} {
		resp, err := http.Get(env.srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestRoutes_CORS(t *testing.T) {
	env := newTestEnv(t, nil, time.Hour)
	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/api/drivers", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestBook_InvalidBodyLeavesStateUnchanged(t *testing.T) {
	drivers := []driver.Driver{{ID: "driver1", Name: "A Anh", Location: types.Point{Lat: 10.80, Lng: 106.70}}}
	env := newTestEnv(t, drivers, time.Hour)

	resp, body := env.post(t, "/api/book", `{"currentLocation":{"lat":10.7769,"lng":106.7009}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["message"])

	listed, err := http.Get(env.srv.URL + "/api/drivers")
	require.NoError(t, err)
	defer listed.Body.Close()
	require.Equal(t, http.StatusOK, listed.StatusCode)
	var pool struct {
		Drivers []driver.Driver `json:"drivers"`
	}
	require.NoError(t, json.NewDecoder(listed.Body).Decode(&pool))
	assert.Equal(t, drivers, pool.Drivers)

	resp, body = env.post(t, "/api/book", bookBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "session stayed idle")
	assert.Equal(t, "Booking confirmed", body["message"])
}

func TestBook_EmptyPoolIs404(t *testing.T) {
	env := newTestEnv(t, nil, time.Hour)
	resp, body := env.post(t, "/api/book", bookBody)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No drivers available", body["message"])
}

func TestBook_SecondBookingWhileActiveIs400(t *testing.T) {
	env := newTestEnv(t, []driver.Driver{{ID: "driver1", Name: "A Anh", Location: pickup}}, time.Hour)

	resp, _ := env.post(t, "/api/book", bookBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.post(t, "/api/book", bookBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "A ride is already in progress", body["message"])
}

type wsEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func TestBook_EndToEnd(t *testing.T) {
	start := types.Point{Lat: 10.80, Lng: 106.70}
	env := newTestEnv(t, []driver.Driver{{ID: "driver1", Name: "A Anh", Location: start}}, 20*time.Millisecond)
	conn := env.dial(t)

	require.Eventually(t, func() bool { return env.hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	resp, body := env.post(t, "/api/book", bookBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Booking confirmed", body["message"])
	d := body["driver"].(map[string]any)
	assert.Equal(t, "driver1", d["id"])

	var (
		statuses []string
		target   = pickup
		last     = location.DistanceMeters(start, pickup)
	)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	for len(statuses) < 2 {
		var ev wsEvent
		require.NoError(t, conn.ReadJSON(&ev))
		switch ev.Event {
		case broadcast.EventLocationUpdate:
			var u broadcast.LocationUpdate
			require.NoError(t, json.Unmarshal(ev.Data, &u))
			assert.Equal(t, types.ID("driver1"), u.DriverID)
			dist := location.DistanceMeters(u.Location, target)
			assert.Less(t, dist, last)
			last = dist
		case broadcast.EventRideStatus:
			var s broadcast.RideStatus
			require.NoError(t, json.Unmarshal(ev.Data, &s))
			statuses = append(statuses, s.Message)
			target = destination
			last = math.Inf(1)
		}
	}
	assert.Equal(t, []string{"Driver A Anh arrived at pickup", "Driver A Anh arrived at destination"}, statuses)

	env.rides.Wait()
	_, active := env.rides.Active()
	assert.False(t, active)

	resp, _ = env.post(t, "/api/book", bookBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "re-booking after arrival succeeds")
}
