// Package http provides the HTTP API for pland.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/pland/internal/audit"
	"github.com/fyrsmithlabs/pland/internal/logging"
	"github.com/fyrsmithlabs/pland/internal/services"
)

// HeaderProjectID scopes a request to one project.
const HeaderProjectID = "X-Project-ID"

// HeaderActor names the acting user for audit entries.
const HeaderActor = "X-Actor"

// Server provides HTTP endpoints for pland.
type Server struct {
	echo     *echo.Echo
	services services.Registry
	logger   *zap.Logger
	config   *Config
	metrics  *HTTPMetrics
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// RateLimit is requests per second per client IP. Zero disables.
	RateLimit float64
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
			Port: 9290,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit)),
		))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Correlation fields for everything downstream.
			ctx := c.Request().Context()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx = logging.WithRequestID(ctx, requestID)
			if actor := c.Request().Header.Get(HeaderActor); actor != "" {
				ctx = logging.WithActor(ctx, actor)
				ctx = audit.WithActor(ctx, actor)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", requestID),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		services: registry,
		logger:   logger,
		config:   cfg,
		metrics:  NewHTTPMetrics(logger),
	}
	e.Use(s.metrics.Middleware())

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")

	// Projects are the scoping resource and need no project header.
	v1.POST("/projects", s.handleCreateProject)
	v1.GET("/projects", s.handleListProjects)
	v1.GET("/projects/:id", s.handleGetProject)
	v1.DELETE("/projects/:id", s.handleDeleteProject)

	// Everything else runs inside a project scope.
	scoped := v1.Group("", s.projectScope)

	scoped.POST("/tasks", s.handleCreateTask)
	scoped.GET("/tasks", s.handleListTasks)
	scoped.GET("/tasks/export", s.handleExportTasks)
	scoped.POST("/tasks/reorder", s.handleReorderTasks)
	scoped.POST("/tasks/baselines", s.handleSaveAllBaselines)
	scoped.POST("/tasks/critical-path", s.handleCriticalPath)
	scoped.GET("/tasks/:id", s.handleGetTask)
	scoped.PUT("/tasks/:id", s.handleUpdateTask)
	scoped.DELETE("/tasks/:id", s.handleArchiveTask)
	scoped.DELETE("/tasks/:id/permanent", s.handleDeleteTask)
	scoped.PATCH("/tasks/:id/restore", s.handleRestoreTask)
	scoped.POST("/tasks/:id/baseline", s.handleSaveBaseline)

	scoped.POST("/task-dependencies", s.handleCreateDependency)
	scoped.DELETE("/task-dependencies/:id", s.handleDeleteDependency)

	scoped.GET("/audit", s.handleListAudit)
	scoped.DELETE("/audit", s.handlePurgeAudit)
}

// projectScope resolves the X-Project-ID header and stashes the project id
// in the request context. Requests without a known project are rejected.
func (s *Server) projectScope(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		projectID := c.Request().Header.Get(HeaderProjectID)
		if projectID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "X-Project-ID header is required")
		}

		ctx := c.Request().Context()
		if _, err := s.services.Projects().Get(ctx, projectID); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown project")
		}

		ctx = logging.WithProjectID(ctx, projectID)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Set("project_id", projectID)
		return next(c)
	}
}

// projectID returns the scoped project id set by projectScope.
func projectID(c echo.Context) string {
	id, _ := c.Get("project_id").(string)
	return id
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
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
