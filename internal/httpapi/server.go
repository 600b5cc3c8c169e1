// Package httpapi exposes the time tracking service over REST.
package httpapi

import (
	"timeroll/internal/service"

	"github.com/gin-gonic/gin"
)

// Server is the HTTP front end of the time tracking service.
type Server struct {
	service service.Service
	router  *gin.Engine
}

// NewServer creates a server with all routes registered.
func NewServer(svc service.Service) *Server {
	router := gin.Default()

	s := &Server{
		service: svc,
		router:  router,
	}

	api := router.Group("/api")
	{
		api.POST("/timers/:entity_type/:entity_id/start", s.handleStartTimer)
		api.POST("/timers/:entity_type/:entity_id/stop", s.handleStopTimer)
		api.POST("/timers/stop-all", s.handleStopAllTimers)
		api.GET("/timers/running", s.handleListRunningTimers)

		api.POST("/entries", s.handleCreateEntry)
		api.PATCH("/entries/:id", s.handleUpdateEntry)
		api.DELETE("/entries/:id", s.handleDeleteEntry)

		api.GET("/summary/:entity_type/:entity_id", s.handleGetSummary)
	}

	return s
}

// Run starts the HTTP server on the given address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
