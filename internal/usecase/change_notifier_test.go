package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/pkg/logger"
	"enroute-service/templates"
)

type recordingRepo struct {
	mu   sync.Mutex
	sent []*entity.Notification
}

func (r *recordingRepo) Send(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

type listRouter struct {
	templates []NotificationTemplate
}

func (r *listRouter) Register(t NotificationTemplate) { r.templates = append(r.templates, t) }

func (r *listRouter) GetTemplate(change entity.Change) NotificationTemplate {
	for _, t := range r.templates {
		if t.CanHandle(change) {
			return t
		}
	}
	return nil
}

func TestChangeNotifierSendsWatchedFlights(t *testing.T) {
	env := newTestEnv(t)
	repo := &recordingRepo{}
	router := &listRouter{}
	router.Register(templates.NewFlightChangedTemplate())
	router.Register(templates.NewFlightRemovedTemplate())
	router.Register(templates.NewAirportChangedTemplate())
	notifier := NewChangeNotifier(env.store, router, repo, logger.NewNop(), "ksfo")

	sub := env.store.Hub().Subscribe(64)
	defer sub.Cancel()
	handleAll := func() {
		for len(sub.C) > 0 {
			if err := notifier.Handle(context.Background(), <-sub.C); err != nil {
				t.Fatalf("handle: %v", err)
			}
		}
	}

	seen := time.Date(2026, 10, 15, 6, 0, 0, 0, time.UTC)
	err := env.merger.Merge(context.Background(), batchOf("KSFO", seen,
		entity.FlightUpdate{Key: "UAL1-1", Ident: "UAL1", OriginICAO: "KLAX", Status: "En Route"},
		entity.FlightUpdate{Key: "ASA2-1", Ident: "ASA2", OriginICAO: "KSEA", DestinationICAO: "KOAK"},
	))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	handleAll()

	if len(repo.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(repo.sent))
	}
	n := repo.sent[0]
	if n.Type != entity.FlightChanged || n.FlightKey != "UAL1-1" || n.ID == "" {
		t.Fatalf("unexpected notification %+v", n)
	}

	pruner := NewFlightPruner(env.store, RetentionPolicy{MaxAge: time.Hour}, logger.NewNop(), env.metrics)
	pruner.now = func() time.Time { return seen.Add(2 * time.Hour) }
	if _, err := pruner.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}
	handleAll()

	if len(repo.sent) != 2 {
		t.Fatalf("expected a removal notification, got %d notifications", len(repo.sent))
	}
	if removed := repo.sent[1]; removed.Type != entity.FlightRemoved || removed.FlightKey != "UAL1-1" || removed.Airport != "KSFO" {
		t.Fatalf("unexpected removal %+v", removed)
	}
}

func TestChangeNotifierAnnouncesAirportMetadataOnce(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.infos["KSFO"] = sfoInfo()
	repo := &recordingRepo{}
	router := &listRouter{}
	router.Register(templates.NewAirportChangedTemplate())
	notifier := NewChangeNotifier(env.store, router, repo, logger.NewNop())

	sub := env.store.Hub().Subscribe(64)
	defer sub.Cancel()

	res, err := env.resolver.Resolve(context.Background(), "KSFO")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	waitMetadata(t, res)
	if err := env.merger.Merge(context.Background(), batchOf("KSFO", time.Now(), entity.FlightUpdate{Key: "A"})); err != nil {
		t.Fatalf("merge: %v", err)
	}

	for len(sub.C) > 0 {
		if err := notifier.Handle(context.Background(), <-sub.C); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if len(repo.sent) != 1 || repo.sent[0].Type != entity.AirportChanged {
		t.Fatalf("expected exactly one airport notification, got %+v", repo.sent)
	}
}

type stubAirlines map[string]string

func (s stubAirlines) GetByCode(ctx context.Context, code string) (*entity.Airline, error) {
	name, ok := s[code]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &entity.Airline{Code: code, Name: name}, nil
}

func TestChangeNotifierUsesAirlineNames(t *testing.T) {
	env := newTestEnv(t)
	repo := &recordingRepo{}
	router := &listRouter{}
	router.Register(templates.NewFlightChangedTemplate())
	notifier := NewChangeNotifier(env.store, router, repo, logger.NewNop()).
		WithAirlines(stubAirlines{"UAL": "United Airlines"})

	flight := &entity.FlightRecord{Key: "UAL1-1", Ident: "UAL1", Operator: "UAL", DestinationICAO: "KSFO"}
	change := entity.Change{Ref: entity.FlightRef("UAL1-1"), Flight: flight}
	if err := notifier.Handle(context.Background(), change); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(repo.sent) != 1 || !strings.Contains(repo.sent[0].Text, "(United Airlines)") {
		t.Fatalf("expected airline name in text, got %+v", repo.sent)
	}
	if flight.Operator != "UAL" {
		t.Fatal("shared snapshot must not be modified")
	}
}
