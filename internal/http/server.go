// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"

	httphandlers "ridesim/internal/http/handlers"
	"ridesim/internal/http/middleware"
	"ridesim/internal/modules/ride"
)

type ServerDeps struct {
	Rides *ride.Service
	// WS upgrades observers onto the push channel. Nil disables /ws.
	WS  http.HandlerFunc
	Log logrus.FieldLogger
}

type Server struct {
	rides *ride.Service
	ws    http.HandlerFunc
	log   logrus.FieldLogger
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{rides: deps.Rides, ws: deps.WS, log: log}
}

// Routes serves every endpoint both under /api and at the root.
func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(s.log), middleware.Logging(s.log))

	driverHandler := httphandlers.NewDriverHandler(s.rides)
	rideHandler := httphandlers.NewRideHandler(s.rides)

	for _, prefix := range []string{"/api", ""} {
		g := r.Group(prefix)
		g.GET("/drivers", driverHandler.List)
		g.POST("/book", rideHandler.Book)
		if s.ws != nil {
			g.GET("/ws", gin.WrapF(s.ws))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowCredentials(),
	)(r)
}
