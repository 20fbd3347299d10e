// README: Handler tests for driver listing, booking, and error mapping.
package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"ridesim/internal/http/handlers"
	"ridesim/internal/modules/driver"
	"ridesim/internal/modules/matching"
	"ridesim/internal/modules/ride"
	"ridesim/internal/types"
)

type stubRides struct {
	drivers []driver.Driver
	booked  *ride.Request
	result  driver.Driver
	err     error
}

func (s *stubRides) Drivers() []driver.Driver { return s.drivers }

func (s *stubRides) Book(_ context.Context, req ride.Request) (driver.Driver, error) {
	s.booked = &req
	return s.result, s.err
}

func buildTestRouter(svc *stubRides) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/drivers", handlers.NewDriverHandler(svc).List)
	r.POST("/api/book", handlers.NewRideHandler(svc).Book)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListDrivers(t *testing.T) {
	svc := &stubRides{drivers: []driver.Driver{
		{ID: "driver1", Name: "A Anh", Location: types.Point{Lat: 10.8, Lng: 106.7}},
	}}
	w := doRequest(buildTestRouter(svc), http.MethodGet, "/api/drivers", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"drivers":[{"id":"driver1","name":"A Anh","location":{"lat":10.8,"lng":106.7}}]}`, w.Body.String())
}

func TestListDrivers_EmptyPool(t *testing.T) {
	w := doRequest(buildTestRouter(&stubRides{drivers: []driver.Driver{}}), http.MethodGet, "/api/drivers", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"drivers":[]}`, w.Body.String())
}

func TestBook_Confirmed(t *testing.T) {
	svc := &stubRides{result: driver.Driver{ID: "driver2", Name: "B Chị", Location: types.Point{Lat: 1, Lng: 2}}}
	w := doRequest(buildTestRouter(svc), http.MethodPost, "/api/book",
		`{"currentLocation":{"lat":10.7769,"lng":106.7009},"destination":{"lat":0,"lng":0}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Booking confirmed","driver":{"id":"driver2","name":"B Chị","location":{"lat":1,"lng":2}}}`, w.Body.String())
	if assert.NotNil(t, svc.booked) {
		assert.Equal(t, types.Point{Lat: 10.7769, Lng: 106.7009}, svc.booked.Pickup)
		assert.Equal(t, types.Point{}, svc.booked.Destination, "zero coordinates are valid input")
	}
}

func TestBook_MalformedBodies(t *testing.T) {
	bodies := map[string]string{
		"not json":          `nope`,
		"empty object":      `{}`,
		"missing lng":       `{"currentLocation":{"lat":1},"destination":{"lat":1,"lng":1}}`,
		"string coordinate": `{"currentLocation":{"lat":"1","lng":1},"destination":{"lat":1,"lng":1}}`,
		"missing dest":      `{"currentLocation":{"lat":1,"lng":1}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			svc := &stubRides{}
			w := doRequest(buildTestRouter(svc), http.MethodPost, "/api/book", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"message"`)
			assert.Nil(t, svc.booked, "service must not be called")
		})
	}
}

func TestBook_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid", ride.ErrInvalidRequest, http.StatusBadRequest},
		{"wrapped invalid", errors.Join(errors.New("pickup"), ride.ErrInvalidRequest), http.StatusBadRequest},
		{"busy", ride.ErrBusy, http.StatusBadRequest},
		{"no driver", matching.ErrNoDriver, http.StatusNotFound},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubRides{err: tt.err}
			w := doRequest(buildTestRouter(svc), http.MethodPost, "/api/book",
				`{"currentLocation":{"lat":1,"lng":1},"destination":{"lat":2,"lng":2}}`)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), `"message"`)
		})
	}
}
