package persistence

import (
	"sync"

	"enroute-service/internal/domain/entity"
	"enroute-service/pkg/logger"
	"enroute-service/pkg/metrics"
)

// DefaultSubscriptionBuffer is used when Subscribe is given a non-positive buffer.
const DefaultSubscriptionBuffer = 64

// Hub fans change notifications out to subscribers.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscription

	logger  logger.Logger
	metrics *metrics.Metrics
}

// Subscription receives changes for the refs it was created with, or for
// every record when created without refs.
type Subscription struct {
	C <-chan entity.Change

	ch   chan entity.Change
	id   uint64
	refs map[entity.EntityRef]struct{}
	hub  *Hub
	once sync.Once
}

func NewHub(logger logger.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		subs:    make(map[uint64]*Subscription),
		logger:  logger,
		metrics: m,
	}
}

// Subscribe registers a subscriber. Delivery never blocks the store:
// when the buffer is full the change is dropped and counted.
func (h *Hub) Subscribe(buffer int, refs ...entity.EntityRef) *Subscription {
	if buffer <= 0 {
		buffer = DefaultSubscriptionBuffer
	}
	ch := make(chan entity.Change, buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h}
	if len(refs) > 0 {
		sub.refs = make(map[entity.EntityRef]struct{}, len(refs))
		for _, ref := range refs {
			sub.refs[ref] = struct{}{}
		}
	}

	h.mu.Lock()
	h.nextID++
	sub.id = h.nextID
	h.subs[sub.id] = sub
	h.mu.Unlock()
	return sub
}

// Cancel unregisters the subscription and closes its channel.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

func (s *Subscription) wants(ref entity.EntityRef) bool {
	if s.refs == nil {
		return true
	}
	_, ok := s.refs[ref]
	return ok
}

// Publish delivers changes to every interested subscriber.
func (h *Hub) Publish(changes []entity.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, change := range changes {
		for _, sub := range h.subs {
			if !sub.wants(change.Ref) {
				continue
			}
			select {
			case sub.ch <- change:
			default:
				h.metrics.NotificationsDropped.Inc()
				h.logger.Warn("Dropping change notification, subscriber is full", "ref", change.Ref.String())
			}
		}
	}
}
