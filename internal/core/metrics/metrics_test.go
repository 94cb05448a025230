package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/docguard/internal/rules"
	"github.com/solatis/docguard/internal/types"
)

var _ rules.Observer = (*Registry)(nil)

func TestRegistry_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.ObserveCheck("required", true)
	m.ObserveCheck("required", false)
	m.ObserveCheck("required", false)
	m.ObserveValidation("invoice", types.StatusRejected, 20*time.Millisecond)
	m.ObserveRuleStoreFailure()
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.ObserveHTTP("/v1/rules", "GET", 200, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuleChecksTotal.WithLabelValues("required", "passed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RuleChecksTotal.WithLabelValues("required", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("invoice", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuleStoreFailureTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuleCacheHitsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RuleCacheMissesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/v1/rules", "GET", "200")))

	count, err := testutil.GatherAndCount(reg, "docguard_validation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewRegistry_IndependentRegisterers(t *testing.T) {
	// Two registries must not collide
	assert.NotPanics(t, func() {
		NewRegistry(prometheus.NewRegistry())
		NewRegistry(prometheus.NewRegistry())
	})
}
