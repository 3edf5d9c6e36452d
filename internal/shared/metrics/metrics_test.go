package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(ingestionCompletedTotal)
	IncIngestionCompleted()
	if got := testutil.ToFloat64(ingestionCompletedTotal); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}

	IncChatRequest("ok")
	if got := testutil.ToFloat64(chatRequestsTotal.WithLabelValues("ok")); got < 1 {
		t.Fatalf("expected chat ok counter >= 1, got %v", got)
	}
}

func TestHandlerServesPrometheusText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	IncDocumentsUploaded()
	ObserveIngestionDurationMs(-5)

	r := gin.New()
	r.GET("/metrics", Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"docbot_documents_uploaded_total", "docbot_ingestion_duration_ms_bucket"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}

func TestHTTPHandlerServesSameRegistry(t *testing.T) {
	IncInsightFallback()

	rec := httptest.NewRecorder()
	HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "docbot_insight_fallback_total") {
		t.Fatalf("expected insight fallback counter in output")
	}
}
