package opensky

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"enroute-service/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, srv.Client(), logger.NewNop())
	c.now = func() time.Time { return time.Unix(1_760_000_000, 0) }
	return c
}

func TestFetchEnrouteMapsArrivals(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/flights/arrival" || q.Get("airport") != "KSFO" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if q.Get("end") != "1760000000" || q.Get("begin") != "1759996400" {
			t.Errorf("unexpected window %s..%s", q.Get("begin"), q.Get("end"))
		}
		w.Write([]byte(`[
			{"icao24": "a1b2c3", "firstSeen": 1759990000, "lastSeen": 1759999000,
			 "callsign": "UAL1    ", "estDepartureAirport": "KLAX", "estArrivalAirport": "KSFO"},
			{"icao24": "", "firstSeen": 1, "lastSeen": 2},
			{"icao24": "d4e5f6", "firstSeen": 1759991000, "lastSeen": 1759998000,
			 "callsign": "SKW9", "estDepartureAirport": null, "estArrivalAirport": null}
		]`))
	})

	updates, err := c.FetchEnroute(context.Background(), "KSFO", time.Hour)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if u := updates[0]; u.Key != "opensky-a1b2c3-1759990000" || u.Ident != "UAL1" || u.OriginICAO != "KLAX" {
		t.Fatalf("unexpected update %+v", u)
	}
	if u := updates[1]; u.DestinationICAO != "KSFO" || u.OriginICAO != "" || u.ActualArrival == nil {
		t.Fatalf("unexpected update %+v", u)
	}
}

func TestFetchEnrouteEmptyWindow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	updates, err := c.FetchEnroute(context.Background(), "KSFO", time.Hour)
	if err != nil || len(updates) != 0 {
		t.Fatalf("expected empty result, got %v err=%v", updates, err)
	}
}
