package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/infrastructure/persistence"
	"enroute-service/internal/interface/repository"
	"enroute-service/pkg/logger"
	"enroute-service/pkg/metrics"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	m := metrics.NewTestMetrics()
	backend := repository.NewMemoryAirportStore()
	err := backend.SaveChanges(context.Background(), entity.ChangeSet{
		Airports: []entity.Airport{
			{ICAO: "KSFO", Name: "San Francisco Intl", Location: "San Francisco, CA"},
			{ICAO: "KJFK", Name: "John F Kennedy Intl", Location: "New York, NY"},
		},
		Flights: []entity.FlightRecord{{Key: "UAL1-1", Ident: "UAL1", OriginICAO: "KJFK", DestinationICAO: "KSFO"}},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	store, err := persistence.NewStoreContext(context.Background(), backend, persistence.NewHub(logger.NewNop(), m), logger.NewNop(), m)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	mux := http.NewServeMux()
	NewAirportHandler(store, logger.NewNop()).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListAirportsOrderedByLocation(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/airports")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var views []struct {
		ICAO         string `json:"icao"`
		FriendlyName string `json:"friendlyName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 2 || views[0].ICAO != "KJFK" || views[1].ICAO != "KSFO" {
		t.Fatalf("unexpected order %+v", views)
	}
	if views[0].FriendlyName != "New York, NY (John F Kennedy)" {
		t.Fatalf("unexpected friendly name %q", views[0].FriendlyName)
	}
}

func TestGetAirportWithFlights(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/airports/ksfo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var detail struct {
		Airport struct {
			ICAO      string   `json:"icao"`
			FlightsTo []string `json:"flightsTo"`
		} `json:"airport"`
		Flights []entity.FlightRecord `json:"flights"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Airport.ICAO != "KSFO" || len(detail.Flights) != 1 || detail.Flights[0].Key != "UAL1-1" {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if len(detail.Airport.FlightsTo) != 1 {
		t.Fatalf("unexpected flightsTo %v", detail.Airport.FlightsTo)
	}
}

func TestGetAirportNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/airports/ZZZZ")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
