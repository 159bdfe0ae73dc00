package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/api/ratelimit"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/logger"
	"github.com/folio/folio/internal/resolver"
	"github.com/folio/folio/internal/scheduler"
	"github.com/folio/folio/internal/search"
	"github.com/folio/folio/internal/sites"
	sourcelimit "github.com/folio/folio/internal/sites/ratelimit"
	"github.com/folio/folio/internal/sites/status"
	"github.com/folio/folio/internal/websocket"
)

// Deps are the services the API exposes. Nil optional services disable
// their routes.
type Deps struct {
	Registry  *sites.Registry
	Search    *search.Aggregator
	Resolver  *resolver.Resolver
	Status    *status.Service
	Budget    *sourcelimit.Limiter
	Scheduler *scheduler.Scheduler
	Hub       *websocket.Hub
	Logs      *logger.Stream
	LogPath   string
	Gatherer  prometheus.Gatherer
}

// Server handles HTTP requests for the folio API.
type Server struct {
	echo    *echo.Echo
	deps    Deps
	cfg     config.ServerConfig
	logger  zerolog.Logger
	started time.Time
	limiter *ratelimit.IPLimiter
}

// NewServer creates a new API server instance.
func NewServer(deps Deps, cfg config.ServerConfig, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		deps:    deps,
		cfg:     cfg,
		logger:  logger.With().Str("component", "api").Logger(),
		started: time.Now(),
	}
	if cfg.ResolvePerMinute > 0 {
		s.limiter = ratelimit.NewIPLimiter(cfg.ResolvePerMinute, time.Minute)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start serves on the configured address until Shutdown.
func (s *Server) Start() error {
	if s.limiter != nil {
		s.limiter.StartCleanup(5 * time.Minute)
	}
	addr := s.cfg.Address()
	s.logger.Info().Str("address", addr).Msg("Starting HTTP server")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.echo.Shutdown(ctx)
}
