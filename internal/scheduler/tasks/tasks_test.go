package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/scheduler"
)

type countingRefresher struct{ calls chan struct{} }

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls <- struct{}{}
	return nil
}

func TestRegisterPeerRefreshTask(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	defer sched.Stop()

	require.NoError(t, RegisterPeerRefreshTask(sched, nil, "*/5 * * * *"))
	require.NoError(t, RegisterPeerRefreshTask(sched, &countingRefresher{}, ""))
	assert.Empty(t, sched.ListTasks())

	r := &countingRefresher{calls: make(chan struct{}, 1)}
	require.NoError(t, RegisterPeerRefreshTask(sched, r, "*/5 * * * *"))
	sched.Start()

	select {
	case <-r.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("peer refresh did not run on start")
	}
}

func TestRegisterCachePurgeTask(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	defer sched.Stop()

	cache := downloader.NewMemoryCache(time.Millisecond, 10)
	cache.Set(context.Background(), "k", &downloader.Response{StatusCode: 200}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, RegisterCachePurgeTask(sched, cache, time.Hour, zerolog.Nop()))
	sched.Start()
	require.NoError(t, sched.RunNow(CachePurgeTaskID))

	assert.Eventually(t, func() bool { return cache.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
