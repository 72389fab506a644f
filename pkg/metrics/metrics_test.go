package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCacheHitMiss(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.cacheHitsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheMissesTotal))
}

func TestSetCacheSize(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SetCacheSize(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(m.cacheSize))
}

func TestRecordOperationSuccessAndError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordOperation("project", nil, 5*time.Millisecond, 128)
	m.RecordOperation("project", errors.New("boom"), time.Millisecond, 0)

	successes := testutil.ToFloat64(m.operationsTotal.WithLabelValues("project", statusSuccess))
	failures := testutil.ToFloat64(m.operationsTotal.WithLabelValues("project", statusError))
	assert.Equal(t, float64(1), successes)
	assert.Equal(t, float64(1), failures)
}
