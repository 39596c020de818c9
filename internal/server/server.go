// Package server exposes a calendar-events repository over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/javiermolinar/orga/internal/api"
	"github.com/javiermolinar/orga/internal/dateutil"
	"github.com/javiermolinar/orga/internal/event"
)

// Backend is the storage the server exposes.
type Backend interface {
	event.Repository
	event.ClientLookup
}

// ClientCreator is implemented by backends that can store new clients.
type ClientCreator interface {
	CreateClient(ctx context.Context, c *event.Client) error
}

// Config holds server settings.
type Config struct {
	Addr         string
	Token        string // required bearer token, empty disables auth
	EnableCORS   bool
	Debug        bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:8080",
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server serves the calendar-events routes under /api.
type Server struct {
	backend    Backend
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
	token      string
}

// New creates a server for backend.
func New(backend Backend, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	if cfg.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		engine.Use(cors.New(corsConfig))
	}

	s := &Server{
		backend: backend,
		logger:  logger,
		engine:  engine,
		token:   cfg.Token,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func (s *Server) setupRoutes() {
	root := s.engine.Group("/api")
	root.GET("/health", s.handleHealth)

	authed := root.Group("")
	authed.Use(s.requireToken())

	events := authed.Group("/calendar/events")
	{
		events.GET("", s.listEvents)
		events.GET("/listUnscheduledEvents", s.listUnscheduled)
		events.POST("", s.createEvent)
		events.PUT("/updateEvent", s.updateEvent)
		events.PATCH("/:id/status", s.updateStatus)
		events.PATCH("/:id/confirm", s.confirm)
		events.DELETE("/:id", s.deleteEvent)
	}

	clients := authed.Group("/clients")
	{
		clients.GET("", s.listClients)
		clients.GET("/:id", s.getClient)
		clients.POST("", s.createClient)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token != "" && c.GetHeader("Authorization") != "Bearer "+s.token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorBody{Error: "Unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) listEvents(c *gin.Context) {
	var f event.Filter
	if v := c.Query("startDate"); v != "" {
		d, err := dateutil.ParseDate(v)
		if err != nil {
			s.badRequest(c, err)
			return
		}
		f.Start = d
	}
	if v := c.Query("endDate"); v != "" {
		d, err := dateutil.ParseDate(v)
		if err != nil {
			s.badRequest(c, err)
			return
		}
		f.End = d
	}
	if v := c.Query("eventType"); v != "" {
		typ, err := event.ParseType(v)
		if err != nil {
			s.badRequest(c, err)
			return
		}
		f.Type = typ
	}
	f.IncludeUnscheduled = c.Query("includeUnscheduled") == "true"

	events, err := s.backend.ListEvents(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toDTOs(events))
}

func (s *Server) listUnscheduled(c *gin.Context) {
	events, err := s.backend.ListUnscheduled(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toDTOs(events))
}

func (s *Server) createEvent(c *gin.Context) {
	var req api.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	draft, err := req.Draft()
	if err != nil {
		s.badRequest(c, err)
		return
	}

	e, err := s.backend.CreateEvent(c.Request.Context(), draft)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.FromEvent(e))
}

func (s *Server) updateEvent(c *gin.Context) {
	var req api.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	u, err := req.Update()
	if err != nil {
		s.badRequest(c, err)
		return
	}

	e, err := s.backend.UpdateEvent(c.Request.Context(), u)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromEvent(e))
}

func (s *Server) updateStatus(c *gin.Context) {
	var req api.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	status, err := event.ParseStatus(req.Status)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	e, err := s.backend.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromEvent(e))
}

func (s *Server) confirm(c *gin.Context) {
	e, err := s.backend.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromEvent(e))
}

func (s *Server) deleteEvent(c *gin.Context) {
	if err := s.backend.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listClients(c *gin.Context) {
	clients, err := s.backend.ListClients(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]api.ClientDTO, 0, len(clients))
	for _, cl := range clients {
		out = append(out, api.FromClient(cl))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getClient(c *gin.Context) {
	cl, err := s.backend.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromClient(cl))
}

func (s *Server) createClient(c *gin.Context) {
	creator, ok := s.backend.(ClientCreator)
	if !ok {
		c.JSON(http.StatusMethodNotAllowed, api.ErrorBody{Error: "Invalid request", Details: "clients are read-only"})
		return
	}

	var req api.ClientDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	cl := req.ToClient()
	if err := creator.CreateClient(c.Request.Context(), cl); err != nil {
		s.badRequest(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.FromClient(cl))
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, api.ErrorBody{Error: "Invalid request", Details: err.Error()})
}

// fail maps a backend error to a response.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, event.ErrEventNotFound), errors.Is(err, event.ErrClientNotFound):
		status = http.StatusNotFound
	case errors.Is(err, event.ErrInvalidStatus),
		errors.Is(err, event.ErrInvalidType),
		errors.Is(err, event.ErrInvalidTimeFormat),
		errors.Is(err, event.ErrInvalidDuration):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, api.ErrorBody{Error: http.StatusText(status), Details: err.Error()})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func toDTOs(events []*event.Event) []api.EventDTO {
	out := make([]api.EventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, api.FromEvent(e))
	}
	return out
}
