package persistence

import (
	"context"
	"fmt"
	"sort"

	"enroute-service/internal/domain/entity"
)

// Tx is the handle passed to Perform. Record pointers returned by it are
// live and valid only until the Perform callback returns.
type Tx struct {
	c   *StoreContext
	ctx context.Context
}

// Context returns the context of the Perform call.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// Airport looks up an airport by code.
func (tx *Tx) Airport(icao string) (*entity.Airport, bool) {
	a, ok := tx.c.airports[entity.NormalizeICAO(icao)]
	return a, ok
}

// Airports returns the airports matching pred (all when nil), ordered by location.
func (tx *Tx) Airports(pred func(*entity.Airport) bool) []*entity.Airport {
	var out []*entity.Airport
	for _, a := range tx.c.airports {
		if pred == nil || pred(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// CreateAirport inserts an ICAO-only airport.
func (tx *Tx) CreateAirport(icao string) (*entity.Airport, error) {
	code := entity.NormalizeICAO(icao)
	if code == "" {
		return nil, entity.ErrInvalidCode
	}
	if _, exists := tx.c.airports[code]; exists {
		return nil, fmt.Errorf("airport %s: %w", code, entity.ErrDuplicateKey)
	}
	now := tx.c.now()
	a := &entity.Airport{ICAO: code, CreatedAt: now, UpdatedAt: now}
	tx.c.airports[code] = a
	tx.c.dirtyAirports[code] = struct{}{}
	tx.c.pending[entity.AirportRef(code)] = struct{}{}
	return a, nil
}

// Flight looks up a flight by provider key.
func (tx *Tx) Flight(key string) (*entity.FlightRecord, bool) {
	f, ok := tx.c.flights[key]
	return f, ok
}

// Flights returns the flights matching pred (all when nil), ordered by key.
func (tx *Tx) Flights(pred func(*entity.FlightRecord) bool) []*entity.FlightRecord {
	var out []*entity.FlightRecord
	for _, f := range tx.c.flights {
		if pred == nil || pred(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// CreateFlight inserts an empty flight record for key.
func (tx *Tx) CreateFlight(key string) (*entity.FlightRecord, error) {
	if key == "" {
		return nil, entity.ErrInvalidFlightKey
	}
	if _, exists := tx.c.flights[key]; exists {
		return nil, fmt.Errorf("flight %s: %w", key, entity.ErrDuplicateKey)
	}
	now := tx.c.now()
	f := &entity.FlightRecord{Key: key, CreatedAt: now, UpdatedAt: now}
	tx.c.flights[key] = f
	delete(tx.c.deletedFlights, key)
	tx.c.dirtyFlights[key] = struct{}{}
	tx.c.pending[entity.FlightRef(key)] = struct{}{}
	return f, nil
}

// DeleteFlight removes a flight and detaches it from both endpoint airports.
func (tx *Tx) DeleteFlight(key string) error {
	f, ok := tx.c.flights[key]
	if !ok {
		return fmt.Errorf("flight %s: %w", key, entity.ErrNotFound)
	}
	if a, ok := tx.c.airports[f.OriginICAO]; ok && a.FlightsFrom.Remove(key) {
		tx.MarkChanged(entity.AirportRef(a.ICAO))
	}
	if a, ok := tx.c.airports[f.DestinationICAO]; ok && a.FlightsTo.Remove(key) {
		tx.MarkChanged(entity.AirportRef(a.ICAO))
	}
	delete(tx.c.flights, key)
	delete(tx.c.dirtyFlights, key)
	tx.c.deletedFlights[key] = struct{}{}
	tx.c.pending[entity.FlightRef(key)] = struct{}{}
	return nil
}

// MarkChanged records that ref was mutated: it is flushed by the next save
// and a change notification is published once that save succeeds.
func (tx *Tx) MarkChanged(ref entity.EntityRef) {
	now := tx.c.now()
	switch ref.Kind {
	case entity.KindAirport:
		if a, ok := tx.c.airports[ref.Key]; ok {
			a.UpdatedAt = now
			tx.c.dirtyAirports[ref.Key] = struct{}{}
		}
	case entity.KindFlight:
		if f, ok := tx.c.flights[ref.Key]; ok {
			f.UpdatedAt = now
			tx.c.dirtyFlights[ref.Key] = struct{}{}
		}
	}
	tx.c.pending[ref] = struct{}{}
}

// Touch queues a change notification for ref without writing the record.
// The notification is published by the next successful save.
func (tx *Tx) Touch(ref entity.EntityRef) {
	tx.c.pending[ref] = struct{}{}
}

// HasPendingChanges reports whether a save would write anything.
func (tx *Tx) HasPendingChanges() bool {
	return len(tx.c.dirtyAirports) > 0 || len(tx.c.dirtyFlights) > 0 || len(tx.c.deletedFlights) > 0
}

// Save flushes every pending change to the backend. A failed save leaves
// the in-memory state untouched so the next save includes it.
func (tx *Tx) Save() error {
	return tx.c.save(tx.ctx)
}
