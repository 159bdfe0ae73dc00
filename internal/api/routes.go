package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/folio/folio/internal/api/handlers"
	apimw "github.com/folio/folio/internal/api/middleware"
)

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())
	s.echo.Use(middleware.BodyLimit("1M"))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	if s.deps.Gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)
	api.GET("/sites", s.listSites)

	catalog := api.Group("/catalog")
	catalog.GET("/search", s.searchCatalog)
	scrape := catalog.Group("")
	if s.limiter != nil {
		scrape.Use(s.limiter.Middleware())
	}
	scrape.GET("/resolve", s.resolveURL)
	scrape.GET("/lookup/:idType/:id", s.lookupID)

	if s.deps.Status != nil {
		sources := api.Group("/sources")
		sources.GET("/health", s.getSourceHealth)
		sources.POST("/:name/reset", s.resetSource)
	}

	if s.deps.Scheduler != nil {
		handlers.NewMaintenanceHandler(s.deps.Scheduler).RegisterRoutes(api.Group("/maintenance/tasks"))
	}

	if s.deps.Logs != nil {
		NewLogsHandlers(s.deps.Logs, s.deps.LogPath).RegisterRoutes(api.Group("/logs"))
	}

	if s.deps.Hub != nil {
		api.GET("/ws", s.deps.Hub.HandleWebSocket)
	}
}
