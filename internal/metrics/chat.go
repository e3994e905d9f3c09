package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		triageClassifications,
		generationRequests,
		generationLatency,
		submitRejections,
		activeSessions,
	)
}

var (
	triageClassifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumora_triage_classifications_total",
			Help: "User messages classified by triage category.",
		},
		[]string{"category"},
	)

	generationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumora_generation_requests_total",
			Help: "Generation calls by outcome (success, failure, timeout).",
		},
		[]string{"outcome"},
	)

	generationLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lumora_generation_latency_seconds",
			Help:    "Latency of calls to the generation service.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
	)

	submitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumora_submit_rejections_total",
			Help: "Submits refused before touching session state, by reason.",
		},
		[]string{"reason"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lumora_active_sessions",
			Help: "Chat sessions currently held in memory.",
		},
	)
)

func ObserveClassification(category string) {
	triageClassifications.WithLabelValues(category).Inc()
}

func ObserveGeneration(outcome string, elapsed time.Duration) {
	generationRequests.WithLabelValues(outcome).Inc()
	generationLatency.Observe(elapsed.Seconds())
}

func SubmitRejected(reason string) {
	submitRejections.WithLabelValues(reason).Inc()
}

func SessionOpened() { activeSessions.Inc() }

func SessionClosed() { activeSessions.Dec() }
