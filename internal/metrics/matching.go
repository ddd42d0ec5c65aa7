package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ranking pipeline Prometheus metrics.
var (
	MatchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumatch",
			Name:      "match_requests_total",
			Help:      "Total number of ranking requests",
		},
		[]string{"status"}, // "completed" / "rejected" / "failed"
	)

	MatchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "resumatch",
			Name:      "match_results",
			Help:      "Number of matches returned per ranking request",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	MatchSearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "resumatch",
			Name:      "match_search_duration_seconds",
			Help:      "Vector search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	FeedbackRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumatch",
			Name:      "feedback_requests_total",
			Help:      "Total number of per-match feedback generations",
		},
		[]string{"provider", "status"}, // status: "ok" / "error" / "skipped"
	)

	FeedbackRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resumatch",
			Name:      "feedback_request_duration_seconds",
			Help:      "Feedback generation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"provider"},
	)
)

var matchMetricsRegistered bool

// RegisterMatchingMetrics registers Prometheus ranking metrics. Must be called once from main.
func RegisterMatchingMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(MatchRequestsTotal)
	prometheus.MustRegister(MatchResults)
	prometheus.MustRegister(MatchSearchDuration)
	prometheus.MustRegister(FeedbackRequestsTotal)
	prometheus.MustRegister(FeedbackRequestDuration)
	matchMetricsRegistered = true
}
