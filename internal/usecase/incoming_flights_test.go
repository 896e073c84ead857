package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/pkg/logger"
)

func TestIncomingFlightsRejectsEmptyCode(t *testing.T) {
	env := newTestEnv(t)
	if _, err := NewIncomingFlights("  ", &fakeSource{}, env.merger, logger.NewNop(), env.metrics); !errors.Is(err, entity.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestIncomingFlightsMergesPolledBatches(t *testing.T) {
	env := newTestEnv(t)
	source := &fakeSource{respond: func(_ context.Context, _ int, icao string, _ time.Duration) ([]entity.FlightUpdate, error) {
		return []entity.FlightUpdate{
			{Key: "UAL1-1", Ident: "UAL1", OriginICAO: "KLAX", DestinationICAO: icao},
			{Key: "DAL2-1", Ident: "DAL2", OriginICAO: "KSEA"},
		}, nil
	}}

	flights, err := NewIncomingFlights("ksfo", source, env.merger, logger.NewNop(), env.metrics)
	if err != nil {
		t.Fatalf("new incoming flights: %v", err)
	}
	if flights.ICAO() != "KSFO" {
		t.Fatalf("unexpected code %s", flights.ICAO())
	}
	if err := flights.Fetch(FetchConfig{Lookahead: DefaultPollLookahead, Interval: time.Hour}); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	defer flights.Stop()

	eventually(t, func() bool {
		_, n := env.backend.Counts()
		return n == 2
	})
	sfo, _ := env.airport(t, "KSFO")
	if sfo.FlightsTo.Len() != 2 {
		t.Fatalf("expected two inbound flights, got %v", sfo.FlightsTo.Keys())
	}

	flights.Stop()
	if flights.Active() {
		t.Fatal("expected idle handle after Stop")
	}
}

func TestIncomingFlightsFetchReplacesSchedule(t *testing.T) {
	env := newTestEnv(t)
	source := &fakeSource{}
	flights, err := NewIncomingFlights("KSFO", source, env.merger, logger.NewNop(), env.metrics)
	if err != nil {
		t.Fatalf("new incoming flights: %v", err)
	}
	defer flights.Stop()

	if err := flights.Fetch(DefaultFetchConfig()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	eventually(t, func() bool { return source.callCount() == 1 })

	if err := flights.Fetch(FetchConfig{Lookahead: time.Hour, Interval: time.Hour}); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	eventually(t, func() bool { return source.callCount() == 2 })

	cfg := flights.poller.Config()
	if cfg.AirportICAO != "KSFO" || cfg.Lookahead != time.Hour {
		t.Fatalf("unexpected active config %+v", cfg)
	}
}
