// Package api provides the HTTP API for studyplan.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/studyplan/internal/auth"
	"github.com/example/studyplan/internal/metrics"
	"github.com/example/studyplan/internal/review"
	"github.com/example/studyplan/internal/spaced_repetition"
	"github.com/example/studyplan/pkg/models"
)

// ReviewService is what the handlers need from review.Service.
type ReviewService interface {
	RecordReview(ctx context.Context, userID string, req review.Request) (*review.Result, error)
	DueItems(ctx context.Context, userID string, asOf time.Time) ([]models.MemoryState, error)
	UpcomingSchedule(ctx context.Context, userID string, asOf time.Time) ([]spaced_repetition.DayLoad, error)
	AddConcept(ctx context.Context, userID, conceptID, title string) (*models.MemoryState, bool, error)
	RemoveConcept(ctx context.Context, userID, conceptID string) error
	Now() time.Time
}

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr string
	JWTSecret  string
	JWTIssuer  string // checked when set
}

// Server provides HTTP endpoints for studyplan.
type Server struct {
	echo    *echo.Echo
	svc     ReviewService
	logger  *zap.Logger
	metrics *metrics.Collector
	config  Config
}

// NewServer creates a new HTTP server. gatherer backs /metrics and
// defaults to the global Prometheus registry.
func NewServer(svc ReviewService, cfg Config, logger *zap.Logger, collector *metrics.Collector, gatherer prometheus.Gatherer) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("review service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		svc:     svc,
		logger:  logger,
		metrics: collector,
		config:  cfg,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger)

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := e.Group("/api/v1", jwtAuth(auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer), logger))
	v1.POST("/reviews", s.handleRecordReview)
	v1.GET("/reviews/due", s.handleDue)
	v1.GET("/reviews/schedule", s.handleSchedule)
	v1.POST("/concepts", s.handleAddConcept)
	v1.DELETE("/concepts/:concept_id", s.handleRemoveConcept)

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// requestLogger logs and counts every request once its final status is known.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}

		status := c.Response().Status
		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		s.metrics.RecordHTTPRequest(c.Request().Method, path, strconv.Itoa(status))

		s.logger.Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		return nil
	}
}

// errorResponse maps service errors onto HTTP statuses.
func (s *Server) errorResponse(err error) error {
	switch {
	case errors.Is(err, review.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, review.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	case errors.Is(err, review.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	case errors.Is(err, review.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "item was updated concurrently, reload and retry")
	default:
		s.logger.Error("request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.config.ListenAddr))
	return s.echo.Start(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
