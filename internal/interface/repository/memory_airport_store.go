package repository

import (
	"context"
	"sort"
	"sync"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"
)

// MemoryAirportStore keeps airports and flights in process memory.
// It backs STORE_DRIVER=memory and the tests.
type MemoryAirportStore struct {
	mu       sync.Mutex
	airports map[string]entity.Airport
	flights  map[string]entity.FlightRecord
	saves    int
	lastSave entity.ChangeSet
	failWith error
}

// NewMemoryAirportStore creates an empty in-memory store
func NewMemoryAirportStore() *MemoryAirportStore {
	return &MemoryAirportStore{
		airports: make(map[string]entity.Airport),
		flights:  make(map[string]entity.FlightRecord),
	}
}

var _ repository.AirportStore = (*MemoryAirportStore)(nil)

// Load returns copies of everything stored
func (s *MemoryAirportStore) Load(ctx context.Context) ([]entity.Airport, []entity.FlightRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	airports := make([]entity.Airport, 0, len(s.airports))
	for _, a := range s.airports {
		airports = append(airports, a.Clone())
	}
	flights := make([]entity.FlightRecord, 0, len(s.flights))
	for _, f := range s.flights {
		flights = append(flights, f.Clone())
	}
	sort.Slice(airports, func(i, j int) bool { return airports[i].ICAO < airports[j].ICAO })
	sort.Slice(flights, func(i, j int) bool { return flights[i].Key < flights[j].Key })
	return airports, flights, nil
}

// SaveChanges applies the change set, or fails without applying anything
// when a failure has been injected with FailSaves.
func (s *MemoryAirportStore) SaveChanges(ctx context.Context, changes entity.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return s.failWith
	}
	for _, a := range changes.Airports {
		a.FlightsTo = entity.FlightSet{}
		a.FlightsFrom = entity.FlightSet{}
		s.airports[a.ICAO] = a
	}
	for _, f := range changes.Flights {
		s.flights[f.Key] = f
	}
	for _, key := range changes.DeletedFlights {
		delete(s.flights, key)
	}
	s.saves++
	s.lastSave = changes
	return nil
}

// Close is a no-op
func (s *MemoryAirportStore) Close(ctx context.Context) error {
	return nil
}

// FailSaves makes every following SaveChanges return err; nil clears it
func (s *MemoryAirportStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Saves returns the number of successful SaveChanges calls
func (s *MemoryAirportStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// LastSave returns the change set of the latest successful SaveChanges
func (s *MemoryAirportStore) LastSave() entity.ChangeSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSave
}

// Airport returns the persisted copy of an airport
func (s *MemoryAirportStore) Airport(icao string) (entity.Airport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.airports[icao]
	return a, ok
}

// Flight returns the persisted copy of a flight
func (s *MemoryAirportStore) Flight(key string) (entity.FlightRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[key]
	return f, ok
}

// Counts returns how many airports and flights are persisted
func (s *MemoryAirportStore) Counts() (airports, flights int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.airports), len(s.flights)
}
