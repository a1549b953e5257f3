package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHandlerServesExportCountersAndHistogram(t *testing.T) {
	IncExportStarted()
	IncExportFallback()
	ObserveExportDurationMs(120)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{
		"# TYPE exports_started_total counter",
		"# TYPE export_duration_ms histogram",
		`export_duration_ms_bucket{le="+Inf"}`,
		"exports_fallback_total",
		"go_goroutines",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(quotaRejectedTotal)
	IncQuotaRejected()
	IncQuotaRejected()
	if got := testutil.ToFloat64(quotaRejectedTotal) - before; got != 2 {
		t.Fatalf("expected 2 increments, got %v", got)
	}
}

func TestNegativeDurationsCountAsZero(t *testing.T) {
	ObserveGenerationDurationMs(-5)

	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "generation_duration_ms" {
			continue
		}
		h := mf.GetMetric()[0].GetHistogram()
		if h.GetSampleCount() == 0 || h.GetSampleSum() < 0 {
			t.Fatalf("unexpected histogram count=%d sum=%v", h.GetSampleCount(), h.GetSampleSum())
		}
		return
	}
	t.Fatal("generation_duration_ms not registered")
}
