package main

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"a11y-server/internal/analysis"
)

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "a11y_http_requests_total",
		Help: "Total number of HTTP requests by status class",
	}, []string{"code"})

	httpErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "a11y_http_errors_total",
		Help: "Total number of HTTP 5xx errors",
	})
)

// Analysis metrics
var (
	documentsAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "a11y_documents_analyzed_total",
		Help: "Documents analyzed by ARIA version and format",
	}, []string{"version", "format"})

	elementsVisited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "a11y_elements_visited_total",
		Help: "Elements visited across all analyzed documents",
	})

	problemsFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "a11y_problems_total",
		Help: "ARIA and naming problems found by kind",
	}, []string{"kind"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "a11y_analysis_duration_seconds",
		Help:    "Time to load and analyze one document",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	analysisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "a11y_analysis_errors_total",
		Help: "Failed analyses by error type",
	}, []string{"error_type"})

	sharedAnalyses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "a11y_analysis_shared_total",
		Help: "Requests answered by an identical in-flight analysis",
	})
)

// Cache metrics
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "a11y_cache_hits_total",
		Help: "Total report cache hits",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "a11y_cache_misses_total",
		Help: "Total report cache misses",
	})
)

var buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "a11y_build_info",
	Help: "Build and configuration information",
}, []string{"cache_backend", "aria_version", "go_version"})

var serverStartTime = time.Now()

// IncrementCacheHit increments the cache hit counter
func IncrementCacheHit() {
	cacheHitsTotal.Inc()
}

// IncrementCacheMiss increments the cache miss counter
func IncrementCacheMiss() {
	cacheMissesTotal.Inc()
}

// recordBuildInfo publishes the configuration the server started with.
func recordBuildInfo(cacheBackend, ariaVersion string) {
	buildInfo.WithLabelValues(cacheBackend, ariaVersion, runtime.Version()).Set(1)
}

// recordReport counts what one analysis found.
func recordReport(r *analysis.Report, format string) {
	documentsAnalyzed.WithLabelValues(string(r.Version), format).Inc()
	elementsVisited.Add(float64(r.ElementCount))

	s := r.Summary
	for kind, n := range map[string]int{
		"invalid_role":       s.InvalidRoles,
		"abstract_role":      s.AbstractRoles,
		"invalid_attr":       s.InvalidAttrs,
		"invalid_attr_value": s.InvalidAttrValues,
		"invalid_ref":        s.InvalidRefs,
		"unsupported_attr":   s.UnsupportedAttrs,
		"deprecated_attr":    s.DeprecatedAttrs,
		"missing_required":   s.MissingRequired,
		"missing_name":       s.MissingNames,
		"prohibited_name":    s.ProhibitedNames,
	} {
		if n > 0 {
			problemsFound.WithLabelValues(kind).Add(float64(n))
		}
	}
}

// metricsHandler serves Prometheus metrics from the default registry
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
