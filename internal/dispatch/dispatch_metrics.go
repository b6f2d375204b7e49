package dispatch

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for live event routing.
type Metrics struct {
	EventsTotal   *prometheus.CounterVec
	EventSeverity prometheus.Histogram
}

// NewMetrics registers and returns routing metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "earshot_events_total",
			Help: "Total live sound events routed, by outcome.",
		}, []string{"outcome"}),
		EventSeverity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "earshot_event_severity",
			Help:    "Severity score distribution of routed events.",
			Buckets: prometheus.LinearBuckets(1, 1, 10), // 1 .. 10
		}),
	}

	reg.MustRegister(
		m.EventsTotal,
		m.EventSeverity,
	)

	return m
}
