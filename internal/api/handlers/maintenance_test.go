package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/scheduler"
)

func newMaintenanceServer(t *testing.T, purge scheduler.TaskFunc) (*echo.Echo, *scheduler.Scheduler) {
	t.Helper()
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	require.NoError(t, sched.RegisterTask(scheduler.TaskConfig{
		ID:       "cache-purge",
		Name:     "Cache Purge",
		Interval: time.Hour,
		Func:     purge,
	}))

	e := echo.New()
	NewMaintenanceHandler(sched).RegisterRoutes(e.Group("/api/v1/maintenance/tasks"))
	return e, sched
}

func serve(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestMaintenanceHandler_ListAndGet(t *testing.T) {
	e, _ := newMaintenanceServer(t, func(context.Context) error { return nil })

	rec := serve(e, http.MethodGet, "/api/v1/maintenance/tasks")
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []scheduler.TaskInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "cache-purge", tasks[0].ID)
	assert.Equal(t, "every 1h0m0s", tasks[0].Schedule)

	rec = serve(e, http.MethodGet, "/api/v1/maintenance/tasks/cache-purge")
	require.Equal(t, http.StatusOK, rec.Code)
	var info scheduler.TaskInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Cache Purge", info.Name)

	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/api/v1/maintenance/tasks/peer-refresh").Code)
}

func TestMaintenanceHandler_RunTask(t *testing.T) {
	release := make(chan struct{})
	e, sched := newMaintenanceServer(t, func(context.Context) error {
		<-release
		return nil
	})
	defer close(release)

	rec := serve(e, http.MethodPost, "/api/v1/maintenance/tasks/cache-purge/run")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, TriggerResponse{Task: "cache-purge", Status: "started"}, resp)

	require.Eventually(t, func() bool {
		info, err := sched.GetTask("cache-purge")
		return err == nil && info.Running
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, http.StatusConflict, serve(e, http.MethodPost, "/api/v1/maintenance/tasks/cache-purge/run").Code)
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodPost, "/api/v1/maintenance/tasks/missing/run").Code)
}
