package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"
	"enroute-service/internal/infrastructure/persistence"
	"enroute-service/pkg/logger"
	"enroute-service/pkg/metrics"

	"golang.org/x/sync/singleflight"
)

// DefaultMetadataTimeout bounds one background metadata fetch.
const DefaultMetadataTimeout = 30 * time.Second

// ErrResolverClosed is reported for metadata requested after Close.
var ErrResolverClosed = errors.New("airport resolver closed")

// MetadataResult is the outcome of the background metadata phase of a resolve.
type MetadataResult struct {
	Airport entity.Airport
	Applied bool
	Err     error
}

// Resolution is returned by Resolve as soon as the airport exists in the store.
// Metadata delivers exactly one result and is then closed.
type Resolution struct {
	Airport entity.Airport
	Created bool

	metadata chan MetadataResult
}

// Metadata returns the channel carrying the metadata outcome.
func (r *Resolution) Metadata() <-chan MetadataResult {
	return r.metadata
}

// AirportResolver looks airports up by code, creating them on first sight
// and filling their metadata in the background.
type AirportResolver struct {
	store   *persistence.StoreContext
	fetcher repository.AirportInfoFetcher
	logger  logger.Logger
	metrics *metrics.Metrics

	timeout time.Duration
	group   singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewAirportResolver creates a new airport resolver
func NewAirportResolver(
	store *persistence.StoreContext,
	fetcher repository.AirportInfoFetcher,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *AirportResolver {
	ctx, cancel := context.WithCancel(context.Background())
	return &AirportResolver{
		store:   store,
		fetcher: fetcher,
		logger:  logger,
		metrics: metrics,
		timeout: DefaultMetadataTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Resolve returns the airport for icao, creating an ICAO-only record when it
// is missing. It never waits for metadata.
func (r *AirportResolver) Resolve(ctx context.Context, icao string) (*Resolution, error) {
	code := entity.NormalizeICAO(icao)
	if code == "" {
		return nil, entity.ErrInvalidCode
	}

	res := &Resolution{metadata: make(chan MetadataResult, 1)}
	err := r.store.Perform(ctx, func(tx *persistence.Tx) error {
		a, created, err := r.EnsureInTx(tx, code)
		if err != nil {
			return err
		}
		res.Airport = a.Clone()
		res.Created = created
		if created {
			return tx.Save()
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to resolve airport", "icao", code, "error", err)
		// The unsaved record stays in memory and later resolves find it,
		// so its metadata has to be requested now.
		if res.Created {
			r.goFetch(code, nil)
		}
		return nil, fmt.Errorf("failed to resolve airport %s: %w", code, err)
	}

	if !res.Created {
		res.metadata <- MetadataResult{Airport: res.Airport}
		close(res.metadata)
		return res, nil
	}

	r.logger.Info("Created airport, requesting metadata", "icao", code)
	r.goFetch(code, res.metadata)
	return res, nil
}

// EnsureInTx finds or creates the airport inside a running transaction.
// The caller is responsible for saving and, when created is true, for
// calling RequestMetadata after the transaction returns.
func (r *AirportResolver) EnsureInTx(tx *persistence.Tx, icao string) (airport *entity.Airport, created bool, err error) {
	if a, ok := tx.Airport(icao); ok {
		return a, false, nil
	}
	a, err := tx.CreateAirport(icao)
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// RequestMetadata starts background metadata fetches for airports created
// outside Resolve.
func (r *AirportResolver) RequestMetadata(codes ...string) {
	for _, code := range codes {
		r.goFetch(entity.NormalizeICAO(code), nil)
	}
}

// Close cancels in-flight metadata fetches and waits for them to finish.
// Requests made after Close report ErrResolverClosed.
func (r *AirportResolver) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

// Wait blocks until every background fetch started so far has finished.
func (r *AirportResolver) Wait() {
	r.wg.Wait()
}

func (r *AirportResolver) goFetch(code string, out chan MetadataResult) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("Skipping metadata fetch, resolver closed", "icao", code)
		if out != nil {
			out <- MetadataResult{Airport: entity.Airport{ICAO: code}, Err: ErrResolverClosed}
			close(out)
		}
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		result := r.fetch(code)
		if out != nil {
			out <- result
			close(out)
		}
	}()
}

// fetch collapses concurrent fetches for the same code into one request.
func (r *AirportResolver) fetch(code string) MetadataResult {
	v, err, _ := r.group.Do(code, func() (interface{}, error) {
		return r.loadMetadata(code)
	})
	if err != nil {
		return MetadataResult{Airport: r.snapshot(code), Err: err}
	}
	return MetadataResult{Airport: v.(entity.Airport), Applied: true}
}

func (r *AirportResolver) loadMetadata(code string) (entity.Airport, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	info, err := r.fetcher.FetchAirportInfo(ctx, code)
	if err != nil {
		r.metrics.MetadataFetches.WithLabelValues("error").Inc()
		r.logger.Warn("Failed to fetch airport metadata", "icao", code, "error", err)
		return entity.Airport{}, fmt.Errorf("failed to fetch metadata for %s: %w", code, err)
	}
	if info == nil || !info.Complete() || entity.NormalizeICAO(info.ICAO) != code {
		r.metrics.MetadataFetches.WithLabelValues("incomplete").Inc()
		r.logger.Warn("Discarding incomplete airport metadata", "icao", code)
		return entity.Airport{}, fmt.Errorf("airport %s: %w", code, entity.ErrIncompleteMetadata)
	}

	var updated entity.Airport
	err = r.store.Perform(ctx, func(tx *persistence.Tx) error {
		a, ok := tx.Airport(code)
		if !ok {
			return fmt.Errorf("airport %s: %w", code, entity.ErrNotFound)
		}
		a.ApplyInfo(*info)
		tx.MarkChanged(entity.AirportRef(code))
		// Attached flights render with the airport name, so observers hear
		// about them, but their records are unchanged.
		for _, key := range a.FlightsTo.Keys() {
			tx.Touch(entity.FlightRef(key))
		}
		for _, key := range a.FlightsFrom.Keys() {
			tx.Touch(entity.FlightRef(key))
		}
		updated = a.Clone()
		return tx.Save()
	})
	if err != nil {
		r.metrics.MetadataFetches.WithLabelValues("error").Inc()
		r.logger.Error("Failed to apply airport metadata", "icao", code, "error", err)
		return entity.Airport{}, err
	}

	r.metrics.MetadataFetches.WithLabelValues("ok").Inc()
	r.logger.Info("Applied airport metadata", "icao", code, "name", updated.FriendlyName())
	return updated, nil
}

func (r *AirportResolver) snapshot(code string) entity.Airport {
	snap := entity.Airport{ICAO: code}
	_ = r.store.Perform(r.ctx, func(tx *persistence.Tx) error {
		if a, ok := tx.Airport(code); ok {
			snap = a.Clone()
		}
		return nil
	})
	return snap
}
