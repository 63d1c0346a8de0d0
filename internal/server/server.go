package server

import (
	"context"
	"errors"
	"fmt"
	"journalsummarizer/internal/domain"
	"journalsummarizer/internal/handler"
	"journalsummarizer/internal/metrics"
	"journalsummarizer/internal/ratelimiter"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	SummarizePath = "/api/summarize"
	SummariesPath = "/api/summaries"
	bodyLimit     = "1M"
)

// HistoryReader lists previously generated summaries.
type HistoryReader interface {
	RecentSummaries(ctx context.Context, limit int) ([]domain.SummaryRecord, error)
}

type Server struct {
	echo    *echo.Echo
	addr    string
	handler *handler.Handler
	history HistoryReader
	limiter *ratelimiter.RateLimiter
	log     *slog.Logger
}

type Option func(*Server)

// WithRateLimiter throttles summarize calls per client IP.
func WithRateLimiter(rl *ratelimiter.RateLimiter) Option {
	return func(s *Server) {
		s.limiter = rl
	}
}

// New wires routes and middleware. history may be nil.
func New(
	addr string,
	h *handler.Handler,
	history HistoryReader,
	m *metrics.Metrics,
	log *slog.Logger,
	opts ...Option,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		addr:    addr,
		handler: h,
		history: history,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}

	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			s.log.Log(c.Request().Context(), level, "HTTP request is handled",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"requestID", v.RequestID,
				"latencySeconds", v.Latency.Seconds(),
				"error", v.Error)

			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))
	e.Use(middleware.BodyLimit(bodyLimit))

	e.Any(SummarizePath, s.summarize, s.rateLimit)
	e.GET(SummariesPath, s.summaries)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info("HTTP server is starting",
		"addr", s.addr)

	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start HTTP server: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	if code >= http.StatusInternalServerError {
		req := c.Request()
		s.log.ErrorContext(req.Context(), "HTTP request failed",
			"error", err,
			"status", code,
			"method", req.Method,
			"path", req.URL.Path)
	}

	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method != http.MethodPost {
			return next(c)
		}

		delay, ok := s.limiter.Allow(c.RealIP())
		if ok {
			return next(c)
		}

		s.log.WarnContext(c.Request().Context(), "Summarize request is rate limited",
			"ip", c.RealIP(),
			"delay", delay)

		c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))

		return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
	}
}
