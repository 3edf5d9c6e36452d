package metrics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docbot"

var (
	registry = prometheus.NewRegistry()

	documentsUploadedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_uploaded_total",
		Help:      "Total documents accepted by the upload endpoint.",
	})
	documentsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_deleted_total",
		Help:      "Total documents deleted.",
	})
	ingestionStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingestion_started_total",
		Help:      "Total ingestion runs started.",
	})
	ingestionCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingestion_completed_total",
		Help:      "Total ingestion runs that marked a document processed.",
	})
	ingestionFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingestion_failed_total",
		Help:      "Total ingestion runs that marked a document as error.",
	})
	ingestionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingestion_duration_ms",
		Help:      "Ingestion duration in milliseconds.",
		Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	})
	insightFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "insight_fallback_total",
		Help:      "Total insight generations that fell back to the default record.",
	})
	chatRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_requests_total",
		Help:      "Total chat requests by outcome.",
	}, []string{"outcome"})
	chatHistoryFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_history_failures_total",
		Help:      "Total chat history writes that failed and were skipped.",
	})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		documentsUploadedTotal,
		documentsDeletedTotal,
		ingestionStartedTotal,
		ingestionCompletedTotal,
		ingestionFailedTotal,
		ingestionDuration,
		insightFallbackTotal,
		chatRequestsTotal,
		chatHistoryFailuresTotal,
	)
}

// IncDocumentsUploaded increments the upload counter.
func IncDocumentsUploaded() { documentsUploadedTotal.Inc() }

// IncDocumentsDeleted increments the delete counter.
func IncDocumentsDeleted() { documentsDeletedTotal.Inc() }

// IncIngestionStarted increments the started counter.
func IncIngestionStarted() { ingestionStartedTotal.Inc() }

// IncIngestionCompleted increments the completed counter.
func IncIngestionCompleted() { ingestionCompletedTotal.Inc() }

// IncIngestionFailed increments the failed counter.
func IncIngestionFailed() { ingestionFailedTotal.Inc() }

// ObserveIngestionDurationMs records an ingestion duration in milliseconds.
func ObserveIngestionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	ingestionDuration.Observe(value)
}

// IncInsightFallback counts insight records built from the fallback.
func IncInsightFallback() { insightFallbackTotal.Inc() }

// IncChatRequest counts a chat request with outcome "ok" or "error".
func IncChatRequest(outcome string) { chatRequestsTotal.WithLabelValues(outcome).Inc() }

// IncChatHistoryFailure counts a swallowed history write failure.
func IncChatHistoryFailure() { chatHistoryFailuresTotal.Inc() }

// Registry exposes the registry for tests and alternate exporters.
func Registry() *prometheus.Registry { return registry }

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// HTTPHandler is Handler for plain net/http muxes.
func HTTPHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
