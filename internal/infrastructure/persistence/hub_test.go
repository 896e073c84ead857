package persistence

import (
	"testing"

	"enroute-service/internal/domain/entity"
	"enroute-service/pkg/logger"
	"enroute-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHubFiltersByRef(t *testing.T) {
	hub := NewHub(logger.NewNop(), metrics.NewTestMetrics())
	sfo := hub.Subscribe(4, entity.AirportRef("KSFO"))
	all := hub.Subscribe(4)
	defer sfo.Cancel()
	defer all.Cancel()

	hub.Publish([]entity.Change{
		{Ref: entity.AirportRef("KSFO")},
		{Ref: entity.AirportRef("KLAX")},
		{Ref: entity.FlightRef("F1")},
	})

	if len(sfo.C) != 1 {
		t.Fatalf("expected 1 change for KSFO subscriber, got %d", len(sfo.C))
	}
	if len(all.C) != 3 {
		t.Fatalf("expected 3 changes for wildcard subscriber, got %d", len(all.C))
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	m := metrics.NewTestMetrics()
	hub := NewHub(logger.NewNop(), m)
	sub := hub.Subscribe(1)
	defer sub.Cancel()

	hub.Publish([]entity.Change{{Ref: entity.FlightRef("A")}, {Ref: entity.FlightRef("B")}})

	if got := testutil.ToFloat64(m.NotificationsDropped); got != 1 {
		t.Fatalf("expected 1 dropped notification, got %v", got)
	}
	if ch := <-sub.C; ch.Ref.Key != "A" {
		t.Fatalf("expected first change kept, got %s", ch.Ref)
	}
}

func TestSubscriptionCancelClosesChannel(t *testing.T) {
	hub := NewHub(logger.NewNop(), metrics.NewTestMetrics())
	sub := hub.Subscribe(1)
	sub.Cancel()
	sub.Cancel()

	if _, ok := <-sub.C; ok {
		t.Fatal("expected closed channel")
	}
	hub.Publish([]entity.Change{{Ref: entity.FlightRef("A")}})
}
