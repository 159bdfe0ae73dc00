package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSearch("goodreads", OutcomeSuccess, 120*time.Millisecond, 3)
	m.ObserveSearch("goodreads", OutcomeError, time.Second, 0)
	m.ObserveScrape("tmdb", OutcomeSuccess)
	m.ObserveDownload(OutcomeCached)
	m.SetBreakerState("spotify", 2)

	assert.InDelta(t, 3, testutil.ToFloat64(m.SearchResults.WithLabelValues("goodreads")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ScrapeTotal.WithLabelValues("tmdb", OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DownloadTotal.WithLabelValues(OutcomeCached)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.BreakerState.WithLabelValues("spotify")), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSearch("x", OutcomeSuccess, 0, 1)
		m.ObserveScrape("x", OutcomeError)
		m.ObserveDownload(OutcomeError)
		m.SetBreakerState("x", 0)
	})
}
