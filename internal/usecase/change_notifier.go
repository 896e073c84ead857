package usecase

import (
	"context"
	"errors"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"
	"enroute-service/internal/infrastructure/persistence"
	"enroute-service/pkg/logger"

	"github.com/google/uuid"
)

// ChangeNotifier turns store change notifications for watched airports
// into outbound notifications.
type ChangeNotifier struct {
	store    *persistence.StoreContext
	router   TemplateRouter
	repo     repository.NotificationRepository
	airlines repository.AirlineRepository
	logger   logger.Logger
	watched  map[string]struct{}
	now      func() time.Time

	// Touched only by the Run goroutine.
	destinations map[string]string
	airportNames map[string]string
}

// NewChangeNotifier creates a notifier for the given airports; none means all.
func NewChangeNotifier(
	store *persistence.StoreContext,
	router TemplateRouter,
	repo repository.NotificationRepository,
	logger logger.Logger,
	airports ...string,
) *ChangeNotifier {
	watched := make(map[string]struct{}, len(airports))
	for _, code := range airports {
		if code = entity.NormalizeICAO(code); code != "" {
			watched[code] = struct{}{}
		}
	}
	return &ChangeNotifier{
		store:        store,
		router:       router,
		repo:         repo,
		logger:       logger,
		watched:      watched,
		now:          time.Now,
		destinations: make(map[string]string),
		airportNames: make(map[string]string),
	}
}

// WithAirlines makes flight notifications show airline names instead of operator codes.
func (n *ChangeNotifier) WithAirlines(airlines repository.AirlineRepository) *ChangeNotifier {
	n.airlines = airlines
	return n
}

// Run consumes changes until ctx is done.
func (n *ChangeNotifier) Run(ctx context.Context) error {
	sub := n.store.Hub().Subscribe(256)
	defer sub.Cancel()

	n.logger.Info("Change notifier started", "airports", len(n.watched))
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := n.Handle(ctx, change); err != nil {
				n.logger.Error("Failed to send notification", "ref", change.Ref.String(), "error", err)
			}
		}
	}
}

// Handle renders and sends the notification for one change, if any.
func (n *ChangeNotifier) Handle(ctx context.Context, change entity.Change) error {
	code, ok := n.airportFor(change)
	if !ok || !n.isWatched(code) {
		return nil
	}

	template := n.router.GetTemplate(change)
	if template == nil {
		n.logger.Debug("No template for change", "ref", change.Ref.String())
		return nil
	}

	airport, err := n.store.GetAirport(ctx, code)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			return err
		}
		airport = entity.Airport{ICAO: code}
	}

	notification := template.Render(n.withAirlineName(ctx, change), &airport)
	if notification == nil {
		return nil
	}
	notification.ID = uuid.NewString()
	notification.CreatedAt = n.now()
	return n.repo.Send(ctx, notification)
}

// airportFor returns the airport a change concerns. Airport changes are only
// reported when their display name changes, so relationship churn stays quiet.
func (n *ChangeNotifier) airportFor(change entity.Change) (string, bool) {
	switch change.Ref.Kind {
	case entity.KindFlight:
		if change.Deleted {
			code, ok := n.destinations[change.Ref.Key]
			delete(n.destinations, change.Ref.Key)
			return code, ok
		}
		if change.Flight == nil || change.Flight.DestinationICAO == "" {
			return "", false
		}
		n.destinations[change.Ref.Key] = change.Flight.DestinationICAO
		return change.Flight.DestinationICAO, true
	case entity.KindAirport:
		if change.Airport == nil {
			return "", false
		}
		name := change.Airport.FriendlyName()
		if n.airportNames[change.Ref.Key] == name {
			return "", false
		}
		n.airportNames[change.Ref.Key] = name
		return change.Ref.Key, true
	}
	return "", false
}

// withAirlineName returns change with the flight operator replaced by the
// airline name when one is known. The shared snapshot is never modified.
func (n *ChangeNotifier) withAirlineName(ctx context.Context, change entity.Change) entity.Change {
	if n.airlines == nil || change.Flight == nil || change.Flight.Operator == "" {
		return change
	}
	airline, err := n.airlines.GetByCode(ctx, change.Flight.Operator)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			n.logger.Warn("Failed to look up airline", "code", change.Flight.Operator, "error", err)
		}
		return change
	}
	flight := *change.Flight
	flight.Operator = airline.Name
	change.Flight = &flight
	return change
}

func (n *ChangeNotifier) isWatched(code string) bool {
	if len(n.watched) == 0 {
		return true
	}
	_, ok := n.watched[code]
	return ok
}
