// Package metrics holds the Prometheus collectors for search, scrape and
// download activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "folio"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomeSkipped = "skipped"
	OutcomeCached  = "cached"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SearchSourceDuration *prometheus.HistogramVec
	SearchResults        *prometheus.CounterVec
	ScrapeTotal          *prometheus.CounterVec
	DownloadTotal        *prometheus.CounterVec
	BreakerState         *prometheus.GaugeVec
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SearchSourceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "search",
				Name:      "source_duration_seconds",
				Help:      "Duration of one search source invocation",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2, 3, 5},
			},
			[]string{"source", "outcome"},
		),
		SearchResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "search",
				Name:      "results_total",
				Help:      "Search results contributed per source",
			},
			[]string{"source"},
		),
		ScrapeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "scrape_total",
				Help:      "Scrape calls by site and outcome",
			},
			[]string{"site", "outcome"},
		),
		DownloadTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "download_total",
				Help:      "Downloads by outcome",
			},
			[]string{"outcome"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "source",
				Name:      "breaker_state",
				Help:      "Circuit breaker state per source (0 closed, 1 half-open, 2 open)",
			},
			[]string{"source"},
		),
	}
}

// ObserveSearch records one source invocation.
func (m *Metrics) ObserveSearch(source, outcome string, elapsed time.Duration, results int) {
	if m == nil {
		return
	}
	m.SearchSourceDuration.WithLabelValues(source, outcome).Observe(elapsed.Seconds())
	if results > 0 {
		m.SearchResults.WithLabelValues(source).Add(float64(results))
	}
}

// ObserveScrape records one scrape call.
func (m *Metrics) ObserveScrape(site, outcome string) {
	if m == nil {
		return
	}
	m.ScrapeTotal.WithLabelValues(site, outcome).Inc()
}

// ObserveDownload records one download.
func (m *Metrics) ObserveDownload(outcome string) {
	if m == nil {
		return
	}
	m.DownloadTotal.WithLabelValues(outcome).Inc()
}

// SetBreakerState records a breaker transition.
func (m *Metrics) SetBreakerState(source string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(source).Set(float64(state))
}
