// Package handlers holds echo handlers that sit outside the catalog routes.
package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/folio/folio/internal/scheduler"
)

// Tasks is the part of the scheduler the maintenance routes drive.
type Tasks interface {
	ListTasks() []scheduler.TaskInfo
	GetTask(id string) (*scheduler.TaskInfo, error)
	RunNow(id string) error
}

// MaintenanceHandler exposes the peer-refresh and cache-purge jobs.
type MaintenanceHandler struct {
	tasks Tasks
}

func NewMaintenanceHandler(tasks Tasks) *MaintenanceHandler {
	return &MaintenanceHandler{tasks: tasks}
}

// RegisterRoutes mounts the handlers on g.
func (h *MaintenanceHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListTasks)
	g.GET("/:id", h.GetTask)
	g.POST("/:id/run", h.RunTask)
}

// TriggerResponse acknowledges a manual run. The outcome shows up later in
// the task's last_run and last_error.
type TriggerResponse struct {
	Task   string `json:"task"`
	Status string `json:"status"`
}

// ListTasks reports every maintenance job with its schedule and last outcome.
// GET /api/v1/maintenance/tasks
func (h *MaintenanceHandler) ListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tasks.ListTasks())
}

// GetTask reports one maintenance job.
// GET /api/v1/maintenance/tasks/:id
func (h *MaintenanceHandler) GetTask(c echo.Context) error {
	info, err := h.tasks.GetTask(c.Param("id"))
	if err != nil {
		return taskError(err)
	}
	return c.JSON(http.StatusOK, info)
}

// RunTask starts a job outside its schedule, for example a peer refresh
// right after editing the peer file.
// POST /api/v1/maintenance/tasks/:id/run
func (h *MaintenanceHandler) RunTask(c echo.Context) error {
	id := c.Param("id")
	if err := h.tasks.RunNow(id); err != nil {
		return taskError(err)
	}
	return c.JSON(http.StatusAccepted, TriggerResponse{Task: id, Status: "started"})
}

func taskError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrTaskNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, scheduler.ErrTaskRunning):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}
