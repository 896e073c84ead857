package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"
	"enroute-service/pkg/logger"
	"enroute-service/pkg/metrics"

	"github.com/google/uuid"
)

// PollConfig describes one polling schedule.
type PollConfig struct {
	AirportICAO string
	Lookahead   time.Duration
	Interval    time.Duration
}

// Validate rejects configurations that cannot be scheduled.
func (c PollConfig) Validate() error {
	if entity.NormalizeICAO(c.AirportICAO) == "" {
		return fmt.Errorf("%w: empty airport code", entity.ErrInvalidConfig)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", entity.ErrInvalidConfig)
	}
	if c.Lookahead < 0 {
		return fmt.Errorf("%w: lookahead must not be negative", entity.ErrInvalidConfig)
	}
	return nil
}

// BatchHandler receives every batch a poller produces. It runs on the
// poller goroutine and must not call Start or Stop on the same poller.
type BatchHandler func(ctx context.Context, batch entity.FlightBatch)

// FlightPoller fetches en-route flights for one airport on a fixed interval.
type FlightPoller struct {
	source  repository.FlightSource
	handler BatchHandler
	logger  logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu     sync.Mutex
	cfg    PollConfig
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFlightPoller creates an idle poller
func NewFlightPoller(
	source repository.FlightSource,
	handler BatchHandler,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *FlightPoller {
	return &FlightPoller{
		source:  source,
		handler: handler,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Start begins polling with cfg. Starting with the active configuration is a
// no-op; a different configuration replaces the running schedule.
func (p *FlightPoller) Start(cfg PollConfig) error {
	cfg.AirportICAO = entity.NormalizeICAO(cfg.AirportICAO)
	if err := cfg.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil && p.cfg == cfg {
		return nil
	}
	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cfg, p.cancel, p.done = cfg, cancel, done

	p.logger.Info("Starting flight poller",
		"airport", cfg.AirportICAO,
		"interval", cfg.Interval.String(),
		"lookahead", cfg.Lookahead.String())
	go p.run(ctx, cfg, done)
	return nil
}

// Stop cancels the schedule and any in-flight request and waits for the
// poll loop to exit. No batch is delivered after Stop returns.
func (p *FlightPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Active reports whether a schedule is running.
func (p *FlightPoller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Config returns the configuration of the running schedule.
func (p *FlightPoller) Config() PollConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

func (p *FlightPoller) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.logger.Info("Stopped flight poller", "airport", p.cfg.AirportICAO)
	p.cancel, p.done = nil, nil
	p.cfg = PollConfig{}
}

func (p *FlightPoller) run(ctx context.Context, cfg PollConfig, done chan struct{}) {
	defer close(done)

	p.tick(ctx, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, cfg)
		}
	}
}

func (p *FlightPoller) tick(ctx context.Context, cfg PollConfig) {
	fetchedAt := p.now()
	updates, err := p.source.FetchEnroute(ctx, cfg.AirportICAO, cfg.Lookahead)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.metrics.PollTicks.WithLabelValues(cfg.AirportICAO, "error").Inc()
		p.logger.Error("Failed to fetch en-route flights",
			"airport", cfg.AirportICAO,
			"source", p.source.Name(),
			"error", err)
		return
	}

	p.metrics.PollTicks.WithLabelValues(cfg.AirportICAO, "ok").Inc()
	p.metrics.FlightUpdates.Add(float64(len(updates)))

	batch := entity.FlightBatch{
		ID:          uuid.NewString(),
		AirportICAO: cfg.AirportICAO,
		Source:      p.source.Name(),
		FetchedAt:   fetchedAt,
		Updates:     updates,
	}
	p.logger.Debug("Delivering flight batch",
		"batchID", batch.ID,
		"airport", batch.AirportICAO,
		"count", len(updates))
	p.handler(ctx, batch)
}
