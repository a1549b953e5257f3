package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector served on /metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	exportsStartedTotal    = counter("exports_started_total", "Total exports started")
	exportsSavedTotal      = counter("exports_saved_total", "Total exports saved")
	exportsFailedTotal     = counter("exports_failed_total", "Total exports failed")
	exportsFallbackTotal   = counter("exports_fallback_total", "Exports rendered by the fallback path")
	exportsOverflowTotal   = counter("exports_overflow_total", "Fallback exports whose content overflowed the page")
	generationsTotal       = counter("generations_total", "Total LLM generations and analyses")
	generationsFailedTotal = counter("generations_failed_total", "Failed LLM generations and analyses")
	quotaRejectedTotal     = counter("quota_rejected_total", "Requests rejected for exhausted quota")
	rateLimitedTotal       = counter("http_rate_limited_total", "Requests rejected by the rate limiter")
	panicsTotal            = counter("http_panics_total", "Recovered handler panics")
	exportJobsReceived     = counter("export_jobs_received_total", "Export queue messages received")
	exportJobsCompleted    = counter("export_jobs_completed_total", "Export queue messages completed")
	exportJobsFailed       = counter("export_jobs_failed_total", "Export queue messages that failed processing")
	exportJobsDropped      = counter("export_jobs_dropped_total", "Unrecoverable export queue messages deleted")

	exportDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "export_duration_ms",
		Help:    "Export duration in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000},
	})
	generationDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "generation_duration_ms",
		Help:    "LLM call duration in milliseconds",
		Buckets: []float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func counter(name, help string) prometheus.Counter {
	return factory.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
}

// IncExportStarted counts an export entering the renderer.
func IncExportStarted() {
	exportsStartedTotal.Inc()
}

// IncExportSaved counts an export whose artifact was saved.
func IncExportSaved() {
	exportsSavedTotal.Inc()
}

// IncExportFailed counts an export that ended in the error state.
func IncExportFailed() {
	exportsFailedTotal.Inc()
}

// IncExportFallback counts exports finished by the fallback renderer.
func IncExportFallback() {
	exportsFallbackTotal.Inc()
}

// IncExportOverflow counts fallback artifacts whose content ran past the page.
func IncExportOverflow() {
	exportsOverflowTotal.Inc()
}

func IncGeneration() {
	generationsTotal.Inc()
}

func IncGenerationFailed() {
	generationsFailedTotal.Inc()
}

func IncQuotaRejected() {
	quotaRejectedTotal.Inc()
}

// IncRateLimited counts requests rejected by the rate limiter.
func IncRateLimited() {
	rateLimitedTotal.Inc()
}

func IncPanic() {
	panicsTotal.Inc()
}

// IncExportJobReceived counts queue messages picked up by the worker.
func IncExportJobReceived() {
	exportJobsReceived.Inc()
}

func IncExportJobCompleted() {
	exportJobsCompleted.Inc()
}

func IncExportJobFailed() {
	exportJobsFailed.Inc()
}

// IncExportJobDropped counts unparseable messages deleted without processing.
func IncExportJobDropped() {
	exportJobsDropped.Inc()
}

// ObserveExportDurationMs records an export duration in milliseconds.
func ObserveExportDurationMs(value float64) {
	exportDuration.Observe(clampNonNegative(value))
}

// ObserveGenerationDurationMs records an LLM call duration in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	generationDuration.Observe(clampNonNegative(value))
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Handler exposes Registry in the Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry}))
}
