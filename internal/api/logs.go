package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/folio/folio/internal/logger"
)

// LogsProvider provides access to recent log entries.
type LogsProvider interface {
	Recent() []logger.Entry
}

// LogsHandlers handles log-related HTTP endpoints.
type LogsHandlers struct {
	provider LogsProvider
	logDir   string
}

// NewLogsHandlers creates a new logs handlers instance. logDir is the
// logging directory and may be empty.
func NewLogsHandlers(provider LogsProvider, logDir string) *LogsHandlers {
	return &LogsHandlers{provider: provider, logDir: logDir}
}

// RegisterRoutes registers log routes on the given group.
func (h *LogsHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecentLogs)
	g.GET("/download", h.DownloadLogFile)
}

// GetRecentLogs returns recent log entries from the ring buffer.
func (h *LogsHandlers) GetRecentLogs(c echo.Context) error {
	logs := h.provider.Recent()
	if logs == nil {
		logs = []logger.Entry{}
	}
	return c.JSON(http.StatusOK, logs)
}

// DownloadLogFile serves the current log file for download.
func (h *LogsHandlers) DownloadLogFile(c echo.Context) error {
	if h.logDir == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}

	logPath := filepath.Join(h.logDir, logger.FileName)
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}

	return c.Attachment(logPath, logger.FileName)
}
