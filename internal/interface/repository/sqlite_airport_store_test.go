package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/infrastructure/persistence"
)

func newTestSQLiteStore(t *testing.T, path string) *SQLiteAirportStore {
	t.Helper()
	db, err := persistence.NewSQLiteDB(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	store, err := NewSQLiteAirportStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store.(*SQLiteAirportStore)
}

func TestSQLiteAirportStorePersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "enroute.db")
	store := newTestSQLiteStore(t, path)

	lat, lon := 37.6188, -122.375
	eta := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	now := time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)

	err := store.SaveChanges(ctx, entity.ChangeSet{
		Airports: []entity.Airport{
			{ICAO: "KSFO", Name: "San Francisco Intl", Location: "San Francisco, CA", Latitude: &lat, Longitude: &lon, CreatedAt: now, UpdatedAt: now},
			{ICAO: "KLAX", CreatedAt: now, UpdatedAt: now},
		},
		Flights: []entity.FlightRecord{
			{Key: "UAL1-1", Ident: "UAL1", OriginICAO: "KLAX", DestinationICAO: "KSFO", EstimatedArrival: &eta, Status: "En Route", LastSeenAt: now, CreatedAt: now, UpdatedAt: now},
			{Key: "DAL2-1", OriginICAO: "KLAX", DestinationICAO: "KSFO", LastSeenAt: now, CreatedAt: now, UpdatedAt: now},
		},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveChanges(ctx, entity.ChangeSet{DeletedFlights: []string{"DAL2-1"}}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded := newTestSQLiteStore(t, path)
	t.Cleanup(func() { _ = reloaded.Close(ctx) })

	airports, flights, err := reloaded.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(airports) != 2 {
		t.Fatalf("expected 2 airports, got %d", len(airports))
	}
	if len(flights) != 1 {
		t.Fatalf("expected 1 flight after delete, got %d", len(flights))
	}

	var sfo entity.Airport
	for _, a := range airports {
		if a.ICAO == "KSFO" {
			sfo = a
		}
	}
	if sfo.Name != "San Francisco Intl" || sfo.Latitude == nil || *sfo.Latitude != lat {
		t.Fatalf("unexpected KSFO row: %+v", sfo)
	}

	f := flights[0]
	if f.Key != "UAL1-1" || f.EstimatedArrival == nil || !f.EstimatedArrival.Equal(eta) {
		t.Fatalf("unexpected flight row: %+v", f)
	}
	if f.ActualArrival != nil {
		t.Fatalf("expected nil actual arrival, got %v", f.ActualArrival)
	}
}

func TestSQLiteAirportStoreUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t, filepath.Join(t.TempDir(), "enroute.db"))
	t.Cleanup(func() { _ = store.Close(ctx) })

	now := time.Now().UTC()
	for _, status := range []string{"Scheduled", "En Route"} {
		if err := store.SaveChanges(ctx, entity.ChangeSet{Flights: []entity.FlightRecord{
			{Key: "K1", DestinationICAO: "KSFO", Status: status, LastSeenAt: now, CreatedAt: now, UpdatedAt: now},
		}}); err != nil {
			t.Fatalf("save %s: %v", status, err)
		}
	}

	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM flights WHERE key = 'K1'`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row, got %d", count)
	}
	_, flights, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if flights[0].Status != "En Route" {
		t.Fatalf("expected latest status, got %q", flights[0].Status)
	}
}
