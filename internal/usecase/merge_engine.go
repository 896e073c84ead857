package usecase

import (
	"context"
	"fmt"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/infrastructure/persistence"
	"enroute-service/pkg/logger"
	"enroute-service/pkg/metrics"
)

// MergeEngine applies flight batches to the store.
type MergeEngine struct {
	store    *persistence.StoreContext
	resolver *AirportResolver
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// NewMergeEngine creates a new merge engine
func NewMergeEngine(
	store *persistence.StoreContext,
	resolver *AirportResolver,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *MergeEngine {
	return &MergeEngine{
		store:    store,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
	}
}

// Merge applies every update of batch in order and saves once. Airports
// first seen as endpoints get a metadata request, never a poll.
func (m *MergeEngine) Merge(ctx context.Context, batch entity.FlightBatch) error {
	start := time.Now()
	defer func() { m.metrics.MergeDuration.Observe(time.Since(start).Seconds()) }()

	var created []string
	err := m.store.Perform(ctx, func(tx *persistence.Tx) error {
		created = created[:0]
		for _, u := range batch.Updates {
			if u.Key == "" {
				m.metrics.FlightsMerged.WithLabelValues("skipped").Inc()
				m.logger.Warn("Skipping flight update without key",
					"batchID", batch.ID,
					"ident", u.Ident)
				continue
			}
			newAirports, err := m.mergeUpdate(tx, batch, u)
			if err != nil {
				m.metrics.FlightsMerged.WithLabelValues("skipped").Inc()
				m.logger.Warn("Skipping flight update",
					"batchID", batch.ID,
					"key", u.Key,
					"error", err)
				continue
			}
			created = append(created, newAirports...)
		}
		return tx.Save()
	})

	// Airports created in memory stay there even when the save failed, so
	// their metadata is still worth fetching.
	if len(created) > 0 {
		m.resolver.RequestMetadata(created...)
	}

	if err != nil {
		m.logger.Error("Failed to merge flight batch",
			"batchID", batch.ID,
			"airport", batch.AirportICAO,
			"error", err)
		return fmt.Errorf("failed to merge batch %s: %w", batch.ID, err)
	}

	m.logger.Debug("Merged flight batch",
		"batchID", batch.ID,
		"airport", batch.AirportICAO,
		"updates", len(batch.Updates),
		"newAirports", len(created))
	return nil
}

func (m *MergeEngine) mergeUpdate(tx *persistence.Tx, batch entity.FlightBatch, u entity.FlightUpdate) ([]string, error) {
	if entity.NormalizeICAO(u.DestinationICAO) == "" {
		u.DestinationICAO = batch.AirportICAO
	}

	var created []string
	ensure := func(code string) (*entity.Airport, error) {
		if code == "" {
			return nil, nil
		}
		a, isNew, err := m.resolver.EnsureInTx(tx, code)
		if err != nil {
			return nil, err
		}
		if isNew {
			created = append(created, a.ICAO)
		}
		return a, nil
	}

	f, ok := tx.Flight(u.Key)
	op := "updated"
	if !ok {
		var err error
		if f, err = tx.CreateFlight(u.Key); err != nil {
			return nil, err
		}
		op = "created"
	}
	oldOrigin, oldDestination := f.OriginICAO, f.DestinationICAO

	f.Apply(u)
	f.LastSeenAt = batch.FetchedAt
	tx.MarkChanged(entity.FlightRef(f.Key))

	origin, err := ensure(f.OriginICAO)
	if err != nil {
		return created, err
	}
	destination, err := ensure(f.DestinationICAO)
	if err != nil {
		return created, err
	}

	if oldOrigin != "" && oldOrigin != f.OriginICAO {
		if a, ok := tx.Airport(oldOrigin); ok && a.FlightsFrom.Remove(f.Key) {
			tx.MarkChanged(entity.AirportRef(a.ICAO))
		}
	}
	if oldDestination != "" && oldDestination != f.DestinationICAO {
		if a, ok := tx.Airport(oldDestination); ok && a.FlightsTo.Remove(f.Key) {
			tx.MarkChanged(entity.AirportRef(a.ICAO))
		}
	}
	if origin != nil && origin.FlightsFrom.Add(f.Key) {
		tx.MarkChanged(entity.AirportRef(origin.ICAO))
	}
	if destination != nil && destination.FlightsTo.Add(f.Key) {
		tx.MarkChanged(entity.AirportRef(destination.ICAO))
	}

	m.metrics.FlightsMerged.WithLabelValues(op).Inc()
	return created, nil
}
