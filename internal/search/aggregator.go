// Package search fans a query out to catalog sources and peers and joins
// the results in a fixed order.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/sites"
	"github.com/folio/folio/internal/sites/ratelimit"
	"github.com/folio/folio/internal/sites/status"
)

// DefaultSourceTimeout bounds each source's search.
const DefaultSourceTimeout = 3 * time.Second

// PeerSearcher searches federated peers.
type PeerSearcher interface {
	Search(ctx context.Context, query, category string) []catalog.SearchResultItem
}

// Options configures an Aggregator. Everything except Searchers is
// optional.
type Options struct {
	Searchers map[catalog.SiteName]sites.Searcher
	Peers     PeerSearcher
	Timeout   time.Duration
	Status    *status.Service
	Budget    *ratelimit.Limiter
	Metrics   *metrics.Metrics
	Events    Publisher
	Logger    zerolog.Logger
}

// Aggregator runs searches across sources.
type Aggregator struct {
	searchers map[catalog.SiteName]sites.Searcher
	peers     PeerSearcher
	timeout   time.Duration
	status    *status.Service
	budget    *ratelimit.Limiter
	metrics   *metrics.Metrics
	events    Publisher
	logger    zerolog.Logger
}

// New creates an aggregator.
func New(opts Options) *Aggregator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	searchers := make(map[catalog.SiteName]sites.Searcher, len(opts.Searchers))
	for k, v := range opts.Searchers {
		searchers[k] = v
	}
	return &Aggregator{
		searchers: searchers,
		peers:     opts.Peers,
		timeout:   timeout,
		status:    opts.Status,
		budget:    opts.Budget,
		metrics:   opts.Metrics,
		events:    opts.Events,
		logger:    opts.Logger.With().Str("component", "search").Logger(),
	}
}

// task is one source invocation of a search.
type task struct {
	name string
	run  func(ctx context.Context) ([]catalog.SearchResultItem, error)
}

type outcome struct {
	items   []catalog.SearchResultItem
	outcome string
	elapsed time.Duration
}

// Search queries every source category routes to, concurrently, and
// returns their results concatenated in routing order. A failing source
// is logged once and contributes nothing, so Search never fails. An empty
// query returns an empty list without any I/O.
func (a *Aggregator) Search(ctx context.Context, category Category, query string, page int) []catalog.SearchResultItem {
	query = trimQuery(query)
	if query == "" {
		return []catalog.SearchResultItem{}
	}
	if page < 1 {
		page = 1
	}
	r, ok := dispatch[category]
	if !ok {
		a.logger.Warn().Str("category", string(category)).Msg("Unknown search category")
		return []catalog.SearchResultItem{}
	}

	tasks := a.plan(r, query, page)
	id := uuid.NewString()
	logger := a.logger.With().Str("search_id", id).Logger()
	started := time.Now()

	a.publish(EventSearchStarted, StartedEvent{
		ID:       id,
		Query:    query,
		Category: category,
		Page:     page,
		Sources:  taskNames(tasks),
	})

	slots := make([]outcome, len(tasks))
	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			slots[i] = a.runTask(ctx, logger, t, query)
			return nil
		})
	}
	_ = g.Wait()

	results := []catalog.SearchResultItem{}
	summaries := make([]SourceSummary, len(tasks))
	for i, s := range slots {
		kept := 0
		for _, item := range s.items {
			if r.accepts(item.Category) {
				results = append(results, item)
				kept++
			}
		}
		summaries[i] = SourceSummary{
			Source:    tasks[i].name,
			Outcome:   s.outcome,
			Results:   kept,
			ElapsedMs: ms(s.elapsed),
		}
	}

	elapsed := time.Since(started)
	logger.Debug().
		Str("query", query).
		Str("category", string(category)).
		Int("results", len(results)).
		Dur("elapsed", elapsed).
		Msg("Search completed")

	a.publish(EventSearchCompleted, CompletedEvent{
		ID:        id,
		Query:     query,
		Category:  category,
		Total:     len(results),
		ElapsedMs: ms(elapsed),
		Sources:   summaries,
	})
	return results
}

// plan lists the invocations for r in result order: peers first, then the
// routed sources that are configured.
func (a *Aggregator) plan(r route, query string, page int) []task {
	var tasks []task
	if r.peers && a.peers != nil {
		peers, category := a.peers, r.peerCategory
		tasks = append(tasks, task{
			name: string(catalog.SiteFediverse),
			run: func(ctx context.Context) ([]catalog.SearchResultItem, error) {
				return peers.Search(ctx, query, category), nil
			},
		})
	}
	for _, name := range r.sources {
		s, ok := a.searchers[name]
		if !ok {
			continue
		}
		tasks = append(tasks, task{
			name: string(name),
			run: func(ctx context.Context) ([]catalog.SearchResultItem, error) {
				return s.Search(ctx, query, page)
			},
		})
	}
	return tasks
}

func (a *Aggregator) runTask(ctx context.Context, logger zerolog.Logger, t task, query string) (res outcome) {
	start := time.Now()
	defer func() {
		res.elapsed = time.Since(start)
		a.metrics.ObserveSearch(t.name, res.outcome, res.elapsed, len(res.items))
	}()

	if !a.budget.Allow(t.name) {
		return outcome{outcome: metrics.OutcomeSkipped}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var items []catalog.SearchResultItem
	call := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("search panicked: %v", p)
			}
		}()
		items, err = t.run(ctx)
		return err
	}

	var err error
	if a.status != nil {
		err = a.status.Execute(t.name, call)
	} else {
		err = call()
	}

	switch {
	case err == nil:
		return outcome{items: items, outcome: metrics.OutcomeSuccess}
	case errors.Is(err, status.ErrSourceDisabled):
		logger.Info().Str("source", t.name).Str("query", query).Msg("Source disabled, skipping")
		return outcome{outcome: metrics.OutcomeSkipped}
	}

	o := metrics.OutcomeError
	if errors.Is(err, context.DeadlineExceeded) {
		o = metrics.OutcomeTimeout
	}
	event := logger.Error().Err(err).
		Str("source", t.name).
		Str("query", query).
		Str("kind", kindOf(err))
	var ce *catalog.Error
	if errors.As(err, &ce) && ce.URL != "" {
		event = event.Str("url", ce.URL)
	}
	event.Msg("Source search failed")
	return outcome{outcome: o}
}

func (a *Aggregator) publish(msgType string, payload any) {
	if a.events != nil {
		a.events.Broadcast(msgType, payload)
	}
}

func kindOf(err error) string {
	if k := catalog.KindOf(err); k != "" {
		return string(k)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return string(catalog.KindFetch)
	}
	return "UNKNOWN"
}

func taskNames(tasks []task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.name
	}
	return out
}

func trimQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
