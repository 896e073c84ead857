package persistence

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
)

// ErrContextClosed is returned by Perform after Close.
var ErrContextClosed = errors.New("store context closed")

// StoreContext owns the live airport and flight graph. Every read and
// mutation runs on its single goroutine through Perform, and Save flushes
// pending changes to the backend.
type StoreContext struct {
	backend repository.AirportStore
	hub     *Hub
	logger  logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	ops       chan operation
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// Fields below are touched only by the context goroutine.
	airports       map[string]*entity.Airport
	flights        map[string]*entity.FlightRecord
	dirtyAirports  map[string]struct{}
	dirtyFlights   map[string]struct{}
	deletedFlights map[string]struct{}
	pending        map[entity.EntityRef]struct{}
}

type operation struct {
	ctx    context.Context
	fn     func(tx *Tx) error
	result chan error
}

// NewStoreContext loads the backend contents and starts the context goroutine.
func NewStoreContext(ctx context.Context, backend repository.AirportStore, hub *Hub, logger logger.Logger, m *metrics.Metrics) (*StoreContext, error) {
	c := &StoreContext{
		backend:        backend,
		hub:            hub,
		logger:         logger,
		metrics:        m,
		now:            time.Now,
		ops:            make(chan operation),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		airports:       make(map[string]*entity.Airport),
		flights:        make(map[string]*entity.FlightRecord),
		dirtyAirports:  make(map[string]struct{}),
		dirtyFlights:   make(map[string]struct{}),
		deletedFlights: make(map[string]struct{}),
		pending:        make(map[entity.EntityRef]struct{}),
	}

	airports, flights, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	c.load(airports, flights)
	logger.Info("Store loaded", "airports", len(c.airports), "flights", len(c.flights))

	go c.run()
	return c, nil
}

// Hub returns the change notification hub fed by this context.
func (c *StoreContext) Hub() *Hub {
	return c.hub
}

func (c *StoreContext) load(airports []entity.Airport, flights []entity.FlightRecord) {
	for i := range airports {
		a := airports[i].Clone()
		a.FlightsTo = entity.FlightSet{}
		a.FlightsFrom = entity.FlightSet{}
		c.airports[a.ICAO] = &a
	}
	for i := range flights {
		f := flights[i].Clone()
		c.flights[f.Key] = &f
		if f.OriginICAO != "" {
			c.loadedEndpoint(f.OriginICAO).FlightsFrom.Add(f.Key)
		}
		if f.DestinationICAO != "" {
			c.loadedEndpoint(f.DestinationICAO).FlightsTo.Add(f.Key)
		}
	}
}

// loadedEndpoint returns the airport for icao, creating an unsaved
// ICAO-only record when a persisted flight references an unknown airport.
func (c *StoreContext) loadedEndpoint(icao string) *entity.Airport {
	if a, ok := c.airports[icao]; ok {
		return a
	}
	now := c.now()
	a := &entity.Airport{ICAO: icao, CreatedAt: now, UpdatedAt: now}
	c.airports[icao] = a
	c.dirtyAirports[icao] = struct{}{}
	return a
}

func (c *StoreContext) run() {
	defer close(c.done)
	for {
		select {
		case op := <-c.ops:
			op.result <- c.execute(op)
		case <-c.quit:
			return
		}
	}
}

func (c *StoreContext) execute(op operation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Store operation panicked", "panic", r)
			err = fmt.Errorf("store operation panicked: %v", r)
		}
	}()
	return op.fn(&Tx{c: c, ctx: op.ctx})
}

// Perform runs fn on the context goroutine and waits for it to return.
// The Tx and any record pointers obtained from it must not escape fn.
func (c *StoreContext) Perform(ctx context.Context, fn func(tx *Tx) error) error {
	op := operation{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case c.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.quit:
		return ErrContextClosed
	}
	return <-op.result
}

// Close stops the context goroutine and closes the backend.
func (c *StoreContext) Close(ctx context.Context) error {
	c.closeOnce.Do(func() { close(c.quit) })
	<-c.done
	return c.backend.Close(ctx)
}

// ListAirports returns snapshots of every airport ordered by location.
func (c *StoreContext) ListAirports(ctx context.Context) ([]entity.Airport, error) {
	var out []entity.Airport
	err := c.Perform(ctx, func(tx *Tx) error {
		for _, a := range tx.Airports(nil) {
			out = append(out, a.Clone())
		}
		return nil
	})
	return out, err
}

// GetAirport returns a snapshot of one airport.
func (c *StoreContext) GetAirport(ctx context.Context, icao string) (entity.Airport, error) {
	var airport entity.Airport
	err := c.Perform(ctx, func(tx *Tx) error {
		a, ok := tx.Airport(icao)
		if !ok {
			return fmt.Errorf("airport %s: %w", entity.NormalizeICAO(icao), entity.ErrNotFound)
		}
		airport = a.Clone()
		return nil
	})
	return airport, err
}

// AirportWithFlights returns a snapshot of the airport and the flights inbound to it.
func (c *StoreContext) AirportWithFlights(ctx context.Context, icao string) (entity.Airport, []entity.FlightRecord, error) {
	var (
		airport entity.Airport
		flights []entity.FlightRecord
	)
	err := c.Perform(ctx, func(tx *Tx) error {
		a, ok := tx.Airport(icao)
		if !ok {
			return fmt.Errorf("airport %s: %w", entity.NormalizeICAO(icao), entity.ErrNotFound)
		}
		airport = a.Clone()
		for _, key := range a.FlightsTo.Keys() {
			if f, ok := tx.Flight(key); ok {
				flights = append(flights, f.Clone())
			}
		}
		return nil
	})
	return airport, flights, err
}

// save flushes dirty records; on success it publishes one change per
// pending record. On failure everything stays pending for the next save.
func (c *StoreContext) save(ctx context.Context) error {
	changes := entity.ChangeSet{}
	for icao := range c.dirtyAirports {
		if a, ok := c.airports[icao]; ok {
			changes.Airports = append(changes.Airports, a.Clone())
		}
	}
	for key := range c.dirtyFlights {
		if f, ok := c.flights[key]; ok {
			changes.Flights = append(changes.Flights, f.Clone())
		}
	}
	for key := range c.deletedFlights {
		changes.DeletedFlights = append(changes.DeletedFlights, key)
	}
	sort.Slice(changes.Airports, func(i, j int) bool { return changes.Airports[i].ICAO < changes.Airports[j].ICAO })
	sort.Slice(changes.Flights, func(i, j int) bool { return changes.Flights[i].Key < changes.Flights[j].Key })
	sort.Strings(changes.DeletedFlights)

	if !changes.Empty() {
		if err := c.backend.SaveChanges(ctx, changes); err != nil {
			c.metrics.StoreSaves.WithLabelValues("error").Inc()
			c.logger.Error("Failed to save store changes",
				"airports", len(changes.Airports),
				"flights", len(changes.Flights),
				"deleted", len(changes.DeletedFlights),
				"error", err)
			return fmt.Errorf("%w: %w", entity.ErrStoreSave, err)
		}
		c.metrics.StoreSaves.WithLabelValues("ok").Inc()
	}

	c.dirtyAirports = make(map[string]struct{})
	c.dirtyFlights = make(map[string]struct{})
	c.deletedFlights = make(map[string]struct{})
	c.publishPending()
	return nil
}

func (c *StoreContext) publishPending() {
	if len(c.pending) == 0 {
		return
	}
	refs := make([]entity.EntityRef, 0, len(c.pending))
	for ref := range c.pending {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Kind != refs[j].Kind {
			return refs[i].Kind < refs[j].Kind
		}
		return refs[i].Key < refs[j].Key
	})

	changes := make([]entity.Change, 0, len(refs))
	for _, ref := range refs {
		change := entity.Change{Ref: ref}
		switch ref.Kind {
		case entity.KindAirport:
			if a, ok := c.airports[ref.Key]; ok {
				snap := a.Clone()
				change.Airport = &snap
			} else {
				change.Deleted = true
			}
		case entity.KindFlight:
			if f, ok := c.flights[ref.Key]; ok {
				snap := f.Clone()
				change.Flight = &snap
			} else {
				change.Deleted = true
			}
		}
		changes = append(changes, change)
	}
	c.pending = make(map[entity.EntityRef]struct{})
	c.hub.Publish(changes)
}
