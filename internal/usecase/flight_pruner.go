package usecase

import (
	"context"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/infrastructure/persistence"
	"enroute-service/pkg/logger"
	"enroute-service/pkg/metrics"
)

// DefaultRetentionMaxAge keeps flights for six hours after they were last reported.
const DefaultRetentionMaxAge = 6 * time.Hour

// RetentionPolicy bounds how long unreported flights are kept.
// A non-positive MaxAge disables pruning.
type RetentionPolicy struct {
	MaxAge time.Duration
}

// FlightPruner removes flights that providers stopped reporting.
type FlightPruner struct {
	store   *persistence.StoreContext
	policy  RetentionPolicy
	logger  logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewFlightPruner creates a new flight pruner
func NewFlightPruner(
	store *persistence.StoreContext,
	policy RetentionPolicy,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *FlightPruner {
	return &FlightPruner{
		store:   store,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Prune deletes every flight last seen before the retention cutoff and
// returns how many were removed.
func (p *FlightPruner) Prune(ctx context.Context) (int, error) {
	if p.policy.MaxAge <= 0 {
		return 0, nil
	}
	cutoff := p.now().Add(-p.policy.MaxAge)

	removed := 0
	err := p.store.Perform(ctx, func(tx *persistence.Tx) error {
		stale := tx.Flights(func(f *entity.FlightRecord) bool {
			return f.LastSeenAt.Before(cutoff)
		})
		if len(stale) == 0 {
			return nil
		}
		for _, f := range stale {
			if err := tx.DeleteFlight(f.Key); err != nil {
				return err
			}
		}
		removed = len(stale)
		return tx.Save()
	})
	if err != nil {
		p.logger.Error("Failed to prune flights", "cutoff", cutoff, "error", err)
		return 0, err
	}

	if removed > 0 {
		p.metrics.FlightsPruned.Add(float64(removed))
		p.logger.Info("Pruned stale flights", "count", removed, "cutoff", cutoff)
	}
	return removed, nil
}

// Run prunes on every interval until ctx is done.
func (p *FlightPruner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Prune(ctx); err != nil {
				p.logger.Error("Retention pass failed", "error", err)
			}
		}
	}
}
