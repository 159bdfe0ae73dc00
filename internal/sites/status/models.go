// Package status tracks search source health with a circuit breaker per
// source.
package status

import (
	"time"

	"github.com/sony/gobreaker"
)

// HealthStatus represents the overall health of a source.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusWarning  HealthStatus = "warning"
	HealthStatusDisabled HealthStatus = "disabled"
)

// SourceHealth provides a summary of source health.
type SourceHealth struct {
	Source              string       `json:"source"`
	Status              HealthStatus `json:"status"`
	State               string       `json:"state"`
	ConsecutiveFailures uint32       `json:"consecutiveFailures"`
	LastSuccess         *time.Time   `json:"lastSuccess,omitempty"`
	LastFailure         *time.Time   `json:"lastFailure,omitempty"`
	LastError           string       `json:"lastError,omitempty"`
}

// Duration is a JSON-serializable duration.
type Duration struct {
	time.Duration
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// BreakerConfig defines when a source is disabled and for how long.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker
	MaxFailures uint32
	// Cooldown is how long an open breaker rejects calls
	Cooldown time.Duration
	// HalfOpenRequests is the number of trial calls let through after cooldown
	HalfOpenRequests uint32
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:      5,
		Cooldown:         5 * time.Minute,
		HalfOpenRequests: 1,
	}
}

func healthOf(state gobreaker.State, failures uint32) HealthStatus {
	switch {
	case state == gobreaker.StateOpen:
		return HealthStatusDisabled
	case state == gobreaker.StateHalfOpen || failures > 0:
		return HealthStatusWarning
	default:
		return HealthStatusHealthy
	}
}
