// Package metrics holds the Prometheus metrics for DocGuard.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/solatis/docguard/internal/types"
)

// Registry holds all Prometheus metrics for DocGuard.
// Implements rules.Observer and the rule cache's hit/miss hooks.
type Registry struct {
	// Validation metrics
	ValidationsTotal      *prometheus.CounterVec
	ValidationDuration    prometheus.Histogram
	RuleChecksTotal       *prometheus.CounterVec
	RuleStoreFailureTotal prometheus.Counter

	// Cache metrics
	RuleCacheHitsTotal   prometheus.Counter
	RuleCacheMissesTotal prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewRegistry registers all metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		ValidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docguard_validations_total",
				Help: "Validation passes by recommended status and document type (\"other\" when no rule applied)",
			},
			[]string{"document_type", "status"},
		),
		ValidationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docguard_validation_duration_seconds",
				Help:    "Validation pass latency including persistence, in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		RuleChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docguard_rule_checks_total",
				Help: "Rule evaluations by condition type and result",
			},
			[]string{"condition_type", "result"},
		),
		RuleStoreFailureTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "docguard_rule_store_failures_total",
				Help: "Validation passes that ran with zero rules because the rule store failed",
			},
		),

		RuleCacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "docguard_rule_cache_hits_total",
				Help: "Rule set lookups served from cache",
			},
		),
		RuleCacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "docguard_rule_cache_misses_total",
				Help: "Rule set lookups that went to the rule store",
			},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docguard_http_requests_total",
				Help: "HTTP requests by route pattern, method and status code",
			},
			[]string{"route", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docguard_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
	}
}

// ObserveCheck counts one rule evaluation.
func (r *Registry) ObserveCheck(condition string, passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	r.RuleChecksTotal.WithLabelValues(condition, result).Inc()
}

// ObserveValidation records one completed pass.
func (r *Registry) ObserveValidation(documentType string, status types.DocumentStatus, elapsed time.Duration) {
	r.ValidationsTotal.WithLabelValues(documentType, string(status)).Inc()
	r.ValidationDuration.Observe(elapsed.Seconds())
}

// ObserveRuleStoreFailure counts a fail-open pass.
func (r *Registry) ObserveRuleStoreFailure() {
	r.RuleStoreFailureTotal.Inc()
}

// CacheHit counts a rule cache hit.
func (r *Registry) CacheHit() { r.RuleCacheHitsTotal.Inc() }

// CacheMiss counts a rule cache miss.
func (r *Registry) CacheMiss() { r.RuleCacheMissesTotal.Inc() }

// ObserveHTTP records one served HTTP request.
func (r *Registry) ObserveHTTP(route, method string, statusCode int, elapsed time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(statusCode)).Inc()
	r.HTTPRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
