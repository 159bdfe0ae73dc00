package status

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/folio/folio/internal/metrics"
)

// ErrSourceDisabled is returned when a source's breaker rejects a call.
var ErrSourceDisabled = errors.New("source temporarily disabled")

type source struct {
	cb          *gobreaker.CircuitBreaker
	lastSuccess *time.Time
	lastFailure *time.Time
	lastError   string
}

// Service tracks source health.
type Service struct {
	config  BreakerConfig
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	sources map[string]*source
}

// NewService creates a new status service.
func NewService(config BreakerConfig, m *metrics.Metrics, logger zerolog.Logger) *Service {
	if config.MaxFailures == 0 {
		config.MaxFailures = DefaultBreakerConfig().MaxFailures
	}
	return &Service{
		config:  config,
		metrics: m,
		logger:  logger.With().Str("component", "source-status").Logger(),
		now:     time.Now,
		sources: make(map[string]*source),
	}
}

// Execute runs fn through the breaker of the named source. When the
// breaker is open fn is not called and the error wraps ErrSourceDisabled.
// Cancellation by the caller does not count as a source failure.
func (s *Service) Execute(name string, fn func() error) error {
	src := s.get(name)
	_, err := src.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%s: %w", name, ErrSourceDisabled)
	case err == nil:
		s.record(src, nil)
	case !errors.Is(err, context.Canceled):
		s.record(src, err)
	}
	return err
}

// Health returns the health of every source seen so far, sorted by name.
func (s *Service) Health() []SourceHealth {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SourceHealth, 0, len(s.sources))
	for name, src := range s.sources {
		state := src.cb.State()
		counts := src.cb.Counts()
		out = append(out, SourceHealth{
			Source:              name,
			Status:              healthOf(state, counts.ConsecutiveFailures),
			State:               state.String(),
			ConsecutiveFailures: counts.ConsecutiveFailures,
			LastSuccess:         src.lastSuccess,
			LastFailure:         src.lastFailure,
			LastError:           src.lastError,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Reset closes the breaker of a source by discarding its state.
func (s *Service) Reset(name string) {
	s.mu.Lock()
	delete(s.sources, name)
	s.mu.Unlock()

	s.metrics.SetBreakerState(name, int(gobreaker.StateClosed))
	s.logger.Info().Str("source", name).Msg("Reset source status")
}

func (s *Service) get(name string) *source {
	s.mu.Lock()
	defer s.mu.Unlock()

	if src, ok := s.sources[name]; ok {
		return src
	}
	src := &source{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.config.HalfOpenRequests,
		Timeout:     s.config.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.config.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: s.onStateChange,
	})}
	s.sources[name] = src
	return src
}

func (s *Service) onStateChange(name string, from, to gobreaker.State) {
	s.metrics.SetBreakerState(name, int(to))

	event := s.logger.Info()
	if to == gobreaker.StateOpen {
		event = s.logger.Warn().Dur("cooldown", s.config.Cooldown)
	}
	event.
		Str("source", name).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("Source breaker state changed")
}

func (s *Service) record(src *source, err error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		src.lastSuccess = &now
		return
	}
	src.lastFailure = &now
	src.lastError = err.Error()
}
