package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingestionStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "compliance",
		Name:      "ingestion_started_total",
		Help:      "Total document ingestions started",
	})

	ingestionCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compliance",
		Name:      "ingestion_completed_total",
		Help:      "Total document ingestions completed",
	}, []string{"provider"})

	ingestionFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compliance",
		Name:      "ingestion_failed_total",
		Help:      "Total document ingestions failed, by stage",
	}, []string{"stage"})

	ingestionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "compliance",
		Name:      "ingestion_duration_ms",
		Help:      "Ingestion duration in milliseconds",
		Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000},
	})

	providerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compliance",
		Name:      "provider_requests_total",
		Help:      "AI provider calls by provider and outcome",
	}, []string{"provider", "outcome"})

	uploadBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compliance",
		Name:      "upload_bytes_total",
		Help:      "Total bytes stored, by content type",
	}, []string{"content_type"})
)

// IncIngestionStarted increments the started counter.
func IncIngestionStarted() {
	ingestionStartedTotal.Inc()
}

// IncIngestionCompleted increments the completed counter.
func IncIngestionCompleted(provider string) {
	ingestionCompletedTotal.WithLabelValues(provider).Inc()
}

// IncIngestionFailed increments the failed counter for the stage that failed.
func IncIngestionFailed(stage string) {
	ingestionFailedTotal.WithLabelValues(stage).Inc()
}

// ObserveIngestionDurationMs records an ingestion duration in milliseconds.
func ObserveIngestionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	ingestionDuration.Observe(value)
}

// IncProviderRequest counts one provider call by outcome.
func IncProviderRequest(provider, outcome string) {
	providerRequestsTotal.WithLabelValues(provider, outcome).Inc()
}

// AddUploadBytes counts stored bytes.
func AddUploadBytes(contentType string, n int64) {
	if n <= 0 {
		return
	}
	uploadBytesTotal.WithLabelValues(contentType).Add(float64(n))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
