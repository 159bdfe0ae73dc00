// Package ratelimit provides per-source query budgets for searches.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config defines rate limit configuration.
type Config struct {
	// QueriesPerSecond is the sustained query rate per source
	QueriesPerSecond float64
	// Burst is the number of queries allowed at once
	Burst int
}

// DefaultConfig returns the default rate limit configuration.
func DefaultConfig() Config {
	return Config{QueriesPerSecond: 10, Burst: 10}
}

// ConfigFromBudget derives a config from a per-second budget, with a burst
// of the same size. A budget of zero or less yields an unlimited config.
func ConfigFromBudget(perSecond float64) Config {
	if perSecond <= 0 {
		return Config{}
	}
	return Config{QueriesPerSecond: perSecond, Burst: int(math.Ceil(perSecond))}
}

// Limiter tracks a token bucket per source.
type Limiter struct {
	logger zerolog.Logger
	config Config

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLimiter creates a new rate limiter. A config with no rate allows
// every query.
func NewLimiter(config Config, logger zerolog.Logger) *Limiter {
	if config.Burst <= 0 {
		config.Burst = int(math.Ceil(config.QueriesPerSecond))
	}
	return &Limiter{
		logger:  logger.With().Str("component", "rate-limiter").Logger(),
		config:  config,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow consumes one query from the source's budget and reports whether
// the query may run.
func (l *Limiter) Allow(source string) bool {
	if l == nil || l.config.QueriesPerSecond <= 0 {
		return true
	}
	if l.bucket(source).Allow() {
		return true
	}
	l.logger.Warn().
		Str("source", source).
		Float64("limit", l.config.QueriesPerSecond).
		Msg("Query budget exhausted")
	return false
}

// GetLimits returns the current budget for a source.
func (l *Limiter) GetLimits(source string) *LimitStatus {
	if l.config.QueriesPerSecond <= 0 {
		return &LimitStatus{Source: source}
	}
	tokens := l.bucket(source).TokensAt(time.Now())
	return &LimitStatus{
		Source:           source,
		QueriesPerSecond: l.config.QueriesPerSecond,
		Burst:            l.config.Burst,
		Available:        tokens,
		Limited:          tokens < 1,
	}
}

// Reset clears the budget for a source.
func (l *Limiter) Reset(source string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, source)
	l.logger.Info().Str("source", source).Msg("Reset rate limits")
}

// ResetAll clears all budgets.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buckets = make(map[string]*rate.Limiter)
	l.logger.Info().Msg("Reset all rate limits")
}

func (l *Limiter) bucket(source string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[source]; ok {
		return b
	}
	b := rate.NewLimiter(rate.Limit(l.config.QueriesPerSecond), l.config.Burst)
	l.buckets[source] = b
	return b
}

// LimitStatus represents the current budget of a source.
type LimitStatus struct {
	Source           string  `json:"source"`
	QueriesPerSecond float64 `json:"queriesPerSecond"`
	Burst            int     `json:"burst"`
	Available        float64 `json:"available"`
	Limited          bool    `json:"limited"`
}
