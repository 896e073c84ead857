package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/infrastructure/persistence"
	memrepo "enroute-service/internal/interface/repository"
	"enroute-service/pkg/logger"
	"enroute-service/pkg/metrics"
)

type testEnv struct {
	backend  *memrepo.MemoryAirportStore
	store    *persistence.StoreContext
	metrics  *metrics.Metrics
	fetcher  *fakeFetcher
	resolver *AirportResolver
	merger   *MergeEngine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	m := metrics.NewTestMetrics()
	backend := memrepo.NewMemoryAirportStore()
	store, err := persistence.NewStoreContext(context.Background(), backend, persistence.NewHub(logger.NewNop(), m), logger.NewNop(), m)
	if err != nil {
		t.Fatalf("new store context: %v", err)
	}
	fetcher := newFakeFetcher()
	resolver := NewAirportResolver(store, fetcher, logger.NewNop(), m)
	t.Cleanup(func() {
		resolver.Close()
		_ = store.Close(context.Background())
	})
	return &testEnv{
		backend:  backend,
		store:    store,
		metrics:  m,
		fetcher:  fetcher,
		resolver: resolver,
		merger:   NewMergeEngine(store, resolver, logger.NewNop(), m),
	}
}

func (e *testEnv) airport(t *testing.T, icao string) (entity.Airport, bool) {
	t.Helper()
	var (
		snap  entity.Airport
		found bool
	)
	err := e.store.Perform(context.Background(), func(tx *persistence.Tx) error {
		if a, ok := tx.Airport(icao); ok {
			snap, found = a.Clone(), true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	return snap, found
}

func (e *testEnv) flight(t *testing.T, key string) (entity.FlightRecord, bool) {
	t.Helper()
	var (
		snap  entity.FlightRecord
		found bool
	)
	err := e.store.Perform(context.Background(), func(tx *persistence.Tx) error {
		if f, ok := tx.Flight(key); ok {
			snap, found = f.Clone(), true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	return snap, found
}

// fakeFetcher serves canned airport metadata. When gate is set every fetch
// waits for it to be closed.
type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	infos map[string]*entity.AirportInfo
	err   error
	gate  chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		calls: make(map[string]int),
		infos: make(map[string]*entity.AirportInfo),
	}
}

func (f *fakeFetcher) FetchAirportInfo(ctx context.Context, icao string) (*entity.AirportInfo, error) {
	f.mu.Lock()
	f.calls[icao]++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.infos[icao]
	if !ok {
		return nil, entity.ErrNotFound
	}
	copied := *info
	return &copied, nil
}

func (f *fakeFetcher) callCount(icao string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[icao]
}

// fakeSource answers every poll with the result of respond.
type fakeSource struct {
	mu      sync.Mutex
	calls   int
	respond func(ctx context.Context, call int, icao string, lookahead time.Duration) ([]entity.FlightUpdate, error)
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) FetchEnroute(ctx context.Context, icao string, lookahead time.Duration) ([]entity.FlightUpdate, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	if s.respond == nil {
		return nil, nil
	}
	return s.respond(ctx, call, icao, lookahead)
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
