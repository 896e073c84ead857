package usecase

import (
	"context"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"
	"enroute-service/pkg/logger"
	"enroute-service/pkg/metrics"
)

const (
	DefaultPollInterval  = 60 * time.Second
	DefaultPollLookahead = 90 * time.Minute
)

// FetchConfig is the per-request part of a poll schedule.
type FetchConfig struct {
	Lookahead time.Duration
	Interval  time.Duration
}

// DefaultFetchConfig polls every minute for flights arriving in the next 90 minutes.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{Lookahead: DefaultPollLookahead, Interval: DefaultPollInterval}
}

// IncomingFlights keeps one airport's incoming flights current. Each handle
// owns at most one running poller.
type IncomingFlights struct {
	icao   string
	poller *FlightPoller
}

// NewIncomingFlights creates an idle handle for icao whose batches are merged by merger.
func NewIncomingFlights(
	icao string,
	source repository.FlightSource,
	merger *MergeEngine,
	logger logger.Logger,
	metrics *metrics.Metrics,
) (*IncomingFlights, error) {
	code := entity.NormalizeICAO(icao)
	if code == "" {
		return nil, entity.ErrInvalidCode
	}

	log := logger.With("airport", code)
	handler := func(ctx context.Context, batch entity.FlightBatch) {
		if err := merger.Merge(ctx, batch); err != nil {
			log.Error("Failed to merge incoming flights", "batchID", batch.ID, "error", err)
		}
	}
	return &IncomingFlights{
		icao:   code,
		poller: NewFlightPoller(source, handler, log, metrics),
	}, nil
}

// ICAO returns the airport this handle polls for.
func (i *IncomingFlights) ICAO() string {
	return i.icao
}

// Fetch replaces any running schedule with one using cfg.
func (i *IncomingFlights) Fetch(cfg FetchConfig) error {
	return i.poller.Start(PollConfig{
		AirportICAO: i.icao,
		Lookahead:   cfg.Lookahead,
		Interval:    cfg.Interval,
	})
}

// Stop ends polling; it is safe to call when idle.
func (i *IncomingFlights) Stop() {
	i.poller.Stop()
}

// Active reports whether the handle is polling.
func (i *IncomingFlights) Active() bool {
	return i.poller.Active()
}
