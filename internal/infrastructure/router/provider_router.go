package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"
	"enroute-service/pkg/logger"
	"enroute-service/pkg/metrics"

	"golang.org/x/time/rate"
)

// ErrProvidersExhausted is returned when every registered source is rate limited.
var ErrProvidersExhausted = errors.New("all flight providers rate-limited")

type providerEntry struct {
	source  repository.FlightSource
	limiter *rate.Limiter // nil = unlimited
}

// capacity is the share of the limiter's burst still available, 1 when unlimited.
func (e providerEntry) capacity() float64 {
	if e.limiter == nil {
		return 1
	}
	return e.limiter.Tokens() / float64(e.limiter.Burst())
}

// ProviderRouter routes en-route requests to the registered source with the
// most remaining rate-limit capacity, falling back to the next on failure.
type ProviderRouter struct {
	mu      sync.RWMutex
	entries []providerEntry
	logger  logger.Logger
	metrics *metrics.Metrics
}

var _ repository.FlightSource = (*ProviderRouter)(nil)

// NewProviderRouter creates a new provider router
func NewProviderRouter(logger logger.Logger, metrics *metrics.Metrics) *ProviderRouter {
	return &ProviderRouter{
		entries: make([]providerEntry, 0),
		logger:  logger,
		metrics: metrics,
	}
}

// Register adds a source allowed perMinute requests per minute. A
// non-positive perMinute leaves it unlimited. Registration order breaks ties.
func (r *ProviderRouter) Register(source repository.FlightSource, perMinute int) {
	entry := providerEntry{source: source}
	if perMinute > 0 {
		entry.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	r.logger.Info("Registered flight provider", "provider", source.Name(), "perMinute", perMinute)
}

// Providers returns the registered source names in registration order.
func (r *ProviderRouter) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.source.Name()
	}
	return names
}

func (r *ProviderRouter) Name() string { return "router" }

// sortedByCapacity returns entries with capacity left, most capacity first.
func (r *ProviderRouter) sortedByCapacity() []providerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		entry    providerEntry
		capacity float64
	}
	candidates := make([]scored, 0, len(r.entries))
	for _, e := range r.entries {
		c := e.capacity()
		if c <= 0 {
			continue
		}
		candidates = append(candidates, scored{entry: e, capacity: c})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].capacity > candidates[b].capacity
	})

	out := make([]providerEntry, len(candidates))
	for i, c := range candidates {
		out[i] = c.entry
	}
	return out
}

// FetchEnroute tries sources by capacity until one answers.
func (r *ProviderRouter) FetchEnroute(ctx context.Context, icao string, lookahead time.Duration) ([]entity.FlightUpdate, error) {
	var lastErr error
	for _, e := range r.sortedByCapacity() {
		name := e.source.Name()
		if e.limiter != nil && !e.limiter.Allow() {
			r.metrics.ProviderRequests.WithLabelValues(name, "limited").Inc()
			r.logger.Debug("Provider rate-limited, skipping", "provider", name)
			continue
		}

		updates, err := e.source.FetchEnroute(ctx, icao, lookahead)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.metrics.ProviderRequests.WithLabelValues(name, "error").Inc()
			r.logger.Warn("Provider failed, trying next", "provider", name, "airport", icao, "error", err)
			lastErr = err
			continue
		}

		r.metrics.ProviderRequests.WithLabelValues(name, "ok").Inc()
		r.logger.Debug("Provider answered", "provider", name, "airport", icao, "count", len(updates))
		return updates, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all flight providers failed, last error: %w", lastErr)
	}
	return nil, ErrProvidersExhausted
}
