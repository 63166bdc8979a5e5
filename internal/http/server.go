// Package http provides the HTTP API for agentd.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agentd/internal/checkpoint"
	"github.com/fyrsmithlabs/agentd/internal/orchestrator"
	"github.com/fyrsmithlabs/agentd/internal/services"
	"github.com/fyrsmithlabs/agentd/internal/workflow"
)

// Server provides HTTP endpoints for agentd.
type Server struct {
	echo     *echo.Echo
	registry services.Registry
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// EventBuffer sizes the per-turn event channel between the
	// orchestrator and the response writer.
	EventBuffer int
}

// NewServer creates a new HTTP server.
func NewServer(registry services.Registry, logger *zap.Logger, cfg *Config) (*Server, error) {
	if registry == nil {
		return nil, fmt.Errorf("service registry cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9090,
		}
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	metrics, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("create http metrics: %w", err)
	}
	e.Use(metrics.middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		registry: registry,
		logger:   logger,
		config:   cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check
	s.echo.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.POST("/sessions/:id/messages", s.handleMessage)
	v1.GET("/sessions/:id/workflow", s.handleGetWorkflow)
	v1.GET("/sessions/:id/checkpoints", s.handleListCheckpoints)
	v1.DELETE("/sessions/:id/memory", s.handleClearMemory)
	v1.POST("/checkpoints/:id/resolve", s.handleResolveCheckpoint)
}

// MessageRequest is the request body for POST /api/v1/sessions/:id/messages.
type MessageRequest struct {
	Message string `json:"message"`
}

// ResolveRequest is the request body for POST /api/v1/checkpoints/:id/resolve.
type ResolveRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Approved  bool   `json:"approved"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleMessage runs one agent turn, streaming events to the client as
// newline-delimited JSON. The first event commits the 200 status; turn
// errors after that point arrive as error events in the stream.
func (s *Server) handleMessage(c echo.Context) error {
	sessionID := c.Param("id")

	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid message request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}

	turnCtx, cancelTurn := context.WithCancel(c.Request().Context())
	defer cancelTurn()

	// The turn runs in its own goroutine; events flow through a
	// buffered channel so a slow client does not stall the model.
	events := make(chan orchestrator.Event, s.config.EventBuffer)
	turnErr := make(chan error, 1)
	go func() {
		defer close(events)
		turnErr <- s.registry.Orchestrator().HandleTurn(turnCtx, sessionID, req.Message, func(e orchestrator.Event) error {
			select {
			case events <- e:
				return nil
			case <-turnCtx.Done():
				return turnCtx.Err()
			}
		})
	}()

	resp := c.Response()
	enc := json.NewEncoder(resp)
	started := false

	for e := range events {
		if !started {
			resp.Header().Set(echo.HeaderContentType, "application/x-ndjson")
			resp.WriteHeader(http.StatusOK)
			started = true
		}
		if err := enc.Encode(e); err != nil {
			// Client is gone; stop the turn and drain.
			cancelTurn()
			continue
		}
		resp.Flush()
	}

	err := <-turnErr
	if err != nil && !started {
		switch {
		case errors.Is(err, orchestrator.ErrTurnInProgress):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, orchestrator.ErrEmptySessionID), errors.Is(err, orchestrator.ErrEmptyMessage):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	if err != nil {
		// The stream already carried the error and done events.
		s.logger.Warn("turn ended with error",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
	return nil
}

// handleResolveCheckpoint applies or rejects a pending checkpoint.
func (s *Server) handleResolveCheckpoint(c echo.Context) error {
	checkpointID := c.Param("id")

	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// A session-scoped request must not resolve another session's
	// checkpoint; report mismatches as not found.
	if req.SessionID != "" {
		existing, err := s.registry.Checkpoint().Get(c.Request().Context(), checkpointID)
		switch {
		case errors.Is(err, checkpoint.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case err != nil:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		case existing.SessionID != req.SessionID:
			return echo.NewHTTPError(http.StatusNotFound, checkpoint.ErrNotFound.Error())
		}
	}

	cp, err := s.registry.Orchestrator().ResolveCheckpoint(c.Request().Context(), checkpointID, req.Approved)
	switch {
	case errors.Is(err, checkpoint.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, checkpoint.ErrAlreadyResolved):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, cp)
}

// handleGetWorkflow returns the session's current run.
func (s *Server) handleGetWorkflow(c echo.Context) error {
	run, err := s.registry.Workflow().GetRun(c.Request().Context(), c.Param("id"))
	switch {
	case errors.Is(err, workflow.ErrRunNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, run)
}

// handleListCheckpoints returns all checkpoints for a session.
func (s *Server) handleListCheckpoints(c echo.Context) error {
	cps, err := s.registry.Checkpoint().ListBySession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if cps == nil {
		cps = []*checkpoint.Checkpoint{}
	}
	return c.JSON(http.StatusOK, cps)
}

// handleClearMemory wipes a session's memory log.
func (s *Server) handleClearMemory(c echo.Context) error {
	if err := s.registry.Memory().Clear(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
