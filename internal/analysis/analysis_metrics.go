package analysis

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the batch analysis subsystem.
type Metrics struct {
	SubmitsTotal       *prometheus.CounterVec
	AnalysesTotal      *prometheus.CounterVec
	AnalysisDuration   *prometheus.HistogramVec
	AnalysisDetections prometheus.Histogram
}

// NewMetrics registers and returns analysis metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "earshot_analysis_submits_total",
			Help: "Total file submissions by validation result.",
		}, []string{"result"}),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "earshot_analyses_total",
			Help: "Total background analyses by terminal status.",
		}, []string{"status"}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "earshot_analysis_duration_seconds",
			Help:    "Duration of background analyses in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s .. ~256s
		}, []string{"status"}),
		AnalysisDetections: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "earshot_analysis_detections",
			Help:    "Detections per completed analysis.",
			Buckets: prometheus.LinearBuckets(0, 1, 16), // 0 .. 15
		}),
	}

	reg.MustRegister(
		m.SubmitsTotal,
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.AnalysisDetections,
	)

	return m
}
