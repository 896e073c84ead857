package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	PollTicks            *prometheus.CounterVec
	FlightUpdates        prometheus.Counter
	FlightsMerged        *prometheus.CounterVec
	MergeDuration        prometheus.Histogram
	StoreSaves           *prometheus.CounterVec
	MetadataFetches      *prometheus.CounterVec
	FlightsPruned        prometheus.Counter
	NotificationsDropped prometheus.Counter
	ProviderRequests     *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics registered on reg.
// A nil reg registers on the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PollTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "The total number of flight poll ticks",
		}, []string{"airport", "result"}),
		FlightUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flight_updates_total",
			Help:      "The total number of flight updates received from providers",
		}),
		FlightsMerged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_merged_total",
			Help:      "The total number of flight updates merged into the store",
		}, []string{"op"}),
		MergeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_duration_seconds",
			Help:      "Time taken to merge a flight batch",
			Buckets:   prometheus.DefBuckets,
		}),
		StoreSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_saves_total",
			Help:      "The total number of store saves",
		}, []string{"result"}),
		MetadataFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metadata_fetches_total",
			Help:      "The total number of airport metadata fetches",
		}, []string{"result"}),
		FlightsPruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_pruned_total",
			Help:      "The total number of flights removed by retention",
		}),
		NotificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Change notifications dropped because a subscriber was full",
		}),
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "The total number of requests to flight data providers",
		}, []string{"provider", "result"}),
	}
}

// NewTestMetrics registers on a private registry so tests can build many instances.
func NewTestMetrics() *Metrics {
	return NewMetrics("test", prometheus.NewRegistry())
}
