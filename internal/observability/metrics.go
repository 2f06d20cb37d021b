package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weathernow"

// Metrics holds the Prometheus collectors for the weather search service.
type Metrics struct {
	// Provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: step={geocode,forecast}, outcome={success,not_found,malformed,transport}
	ProviderDuration *prometheus.HistogramVec // labels: step={geocode,forecast}

	// Search controller metrics.
	Searches         *prometheus.CounterVec // labels: outcome={result,error}
	StaleCompletions prometheus.Counter
	SearchesInFlight prometheus.Gauge
	SearchDuration   prometheus.Histogram

	// Assignment store metrics.
	AssignmentWrites    *prometheus.CounterVec // labels: op={assign,reset}, outcome={success,error}
	AssignmentsComplete prometheus.Gauge

	// Transition feed metrics.
	TransitionsPublished *prometheus.CounterVec // labels: phase={result,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.Searches,
		m.StaleCompletions,
		m.SearchesInFlight,
		m.SearchDuration,
		m.AssignmentWrites,
		m.AssignmentsComplete,
		m.TransitionsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Open-Meteo requests by step and outcome.",
		}, []string{"step", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      "Open-Meteo request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"step"}),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Completed weather searches by outcome.",
		}, []string{"outcome"}),
		StaleCompletions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_completions_total",
			Help:      "Search completions discarded because a newer search superseded them.",
		}),
		SearchesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "searches_in_flight",
			Help:      "Searches currently waiting on the weather provider.",
		}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of a full city search and forecast fetch.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		AssignmentWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_writes_total",
			Help:      "Assignment snapshot writes by operation and outcome.",
		}, []string{"op", "outcome"}),
		AssignmentsComplete: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assignments_complete",
			Help:      "1 when every weather category has a photo assigned, 0 otherwise.",
		}),
		TransitionsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_published_total",
			Help:      "Search transitions handed to the Kafka writer by phase.",
		}, []string{"phase"}),
	}
}
