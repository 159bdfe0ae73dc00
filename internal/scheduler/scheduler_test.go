package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestRegisterTask_Validation(t *testing.T) {
	s := newScheduler(t)
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.RegisterTask(TaskConfig{ID: "none", Func: noop}))
	assert.Error(t, s.RegisterTask(TaskConfig{ID: "both", Cron: "* * * * *", Interval: time.Minute, Func: noop}))
	assert.Error(t, s.RegisterTask(TaskConfig{ID: "bad", Cron: "not a cron", Func: noop}))

	require.NoError(t, s.RegisterTask(TaskConfig{ID: "ok", Cron: "*/5 * * * *", Func: noop}))
	assert.Error(t, s.RegisterTask(TaskConfig{ID: "ok", Interval: time.Hour, Func: noop}))
}

func TestRunNow_RecordsOutcome(t *testing.T) {
	s := newScheduler(t)
	var runs atomic.Int32
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:       "fail",
		Name:     "Fail",
		Interval: time.Hour,
		Func: func(context.Context) error {
			runs.Add(1)
			return errors.New("boom")
		},
	}))
	s.Start()

	require.NoError(t, s.RunNow("fail"))
	require.Eventually(t, func() bool {
		info, err := s.GetTask("fail")
		return err == nil && info.LastRun != nil && !info.Running
	}, 2*time.Second, 10*time.Millisecond)

	info, err := s.GetTask("fail")
	require.NoError(t, err)
	assert.Equal(t, "boom", info.LastError)
	assert.Equal(t, "every 1h0m0s", info.Schedule)
	assert.Equal(t, int32(1), runs.Load())

	assert.Error(t, s.RunNow("missing"))
}

func TestStart_RunsStartupTasks(t *testing.T) {
	s := newScheduler(t)
	done := make(chan struct{})
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:         "startup",
		Cron:       "0 0 1 1 *",
		RunOnStart: true,
		Func: func(context.Context) error {
			close(done)
			return nil
		},
	}))
	s.Start()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("startup task did not run")
	}
}

func TestUnregisterTask(t *testing.T) {
	s := newScheduler(t)
	require.NoError(t, s.RegisterTask(TaskConfig{ID: "b", Interval: time.Hour, Func: func(context.Context) error { return nil }}))
	require.NoError(t, s.RegisterTask(TaskConfig{ID: "a", Interval: time.Hour, Func: func(context.Context) error { return nil }}))

	tasks := s.ListTasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "a", tasks[0].Name)

	require.NoError(t, s.UnregisterTask("a"))
	require.NoError(t, s.UnregisterTask("a"))
	assert.Len(t, s.ListTasks(), 1)
}
