package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/folio/folio/internal/config"
	sourcelimit "github.com/folio/folio/internal/sites/ratelimit"
	"github.com/folio/folio/internal/sites/status"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	response := map[string]any{
		"version":   config.Version,
		"startTime": s.started.Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}
	if s.deps.Registry != nil {
		response["sites"] = len(s.deps.Registry.Adapters())
	}
	if s.deps.Hub != nil {
		response["clients"] = s.deps.Hub.ClientCount()
	}
	return c.JSON(http.StatusOK, response)
}

// SourceHealthResponse combines breaker state with the search budget.
type SourceHealthResponse struct {
	status.SourceHealth
	Budget *sourcelimit.LimitStatus `json:"budget,omitempty"`
}

// GET /api/v1/sources/health
func (s *Server) getSourceHealth(c echo.Context) error {
	health := s.deps.Status.Health()
	out := make([]SourceHealthResponse, 0, len(health))
	for _, h := range health {
		r := SourceHealthResponse{SourceHealth: h}
		if s.deps.Budget != nil {
			r.Budget = s.deps.Budget.GetLimits(h.Source)
		}
		out = append(out, r)
	}
	return c.JSON(http.StatusOK, out)
}

// POST /api/v1/sources/:name/reset
func (s *Server) resetSource(c echo.Context) error {
	name := c.Param("name")
	s.deps.Status.Reset(name)
	if s.deps.Budget != nil {
		s.deps.Budget.Reset(name)
	}
	return c.NoContent(http.StatusNoContent)
}
