package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterIncAndAdd(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("test_counter", "A test counter", nil)

	assert.Equal(t, 0.0, c.Value())

	c.Inc()
	assert.Equal(t, 1.0, c.Value())

	c.Add(2.5)
	assert.Equal(t, 3.5, c.Value())

	c.Add(0.001)
	assert.InDelta(t, 3.501, c.Value(), 0.0001)

	// Negative delta should be ignored.
	c.Add(-10)
	assert.InDelta(t, 3.501, c.Value(), 0.0001)
}

func TestCounterConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("concurrent_counter", "counter for concurrency test", nil)

	var wg sync.WaitGroup
	n := 1000
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(n), c.Value())
}

func TestGaugeSetIncDec(t *testing.T) {
	r := NewRegistry()
	g := r.NewGauge("test_gauge", "A test gauge", nil)

	g.Set(42.5)
	assert.Equal(t, 42.5, g.Value())

	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, 43.5, g.Value())
}

func TestHistogramObserveAndQuantile(t *testing.T) {
	r := NewRegistry()
	h := r.NewHistogram("test_hist", "A test histogram", nil, []float64{10, 50, 100})

	for _, v := range []float64{5, 5, 5, 5, 40, 40, 40, 90, 90, 90} {
		h.Observe(v)
	}

	assert.Equal(t, int64(10), h.Count())
	assert.Equal(t, 410.0, h.Sum())

	// 40% of observations fall in the first bucket.
	assert.InDelta(t, 10.0, h.Quantile(0.4), 0.001)
	assert.Greater(t, h.Quantile(0.9), 50.0)

	// Out of range quantiles return 0.
	assert.Equal(t, 0.0, h.Quantile(1.5))
}

func TestRegistryReturnsExisting(t *testing.T) {
	r := NewRegistry()
	a := r.NewCounter("dup", "first", nil)
	b := r.NewCounter("dup", "second", nil)
	assert.Same(t, a, b)

	assert.Same(t, a, r.GetCounter("dup"))
	assert.Nil(t, r.GetCounter("missing"))
}

func TestServiceMetricsPreset(t *testing.T) {
	r := ServiceMetrics()

	require.NotNil(t, r.GetCounter(MetricAnalysesTotal))
	require.NotNil(t, r.GetCounter(MetricAnalysisCacheHit))
	require.NotNil(t, r.GetGauge(MetricWatchedMints))
	require.NotNil(t, r.GetHistogram(MetricAnalysisDuration))
}

func TestPrometheusExporterFormat(t *testing.T) {
	r := NewRegistry()
	r.NewCounter("ttt_analyses_total", "Total token analyses performed", nil).Inc()
	r.NewGauge("ttt_watched_mints", "Mints tracked", nil).Set(3)
	h := r.NewHistogram("ttt_analysis_duration_ms", "Latency", nil, []float64{10, 100})
	h.Observe(7)
	h.Observe(250)

	exporter := NewPrometheusExporter(r)
	out := exporter.Format()

	assert.Contains(t, out, "# TYPE ttt_analyses_total counter")
	assert.Contains(t, out, "ttt_analyses_total 1")
	assert.Contains(t, out, "ttt_watched_mints 3")
	assert.Contains(t, out, `ttt_analysis_duration_ms_bucket{le="10"} 1`)
	assert.Contains(t, out, `ttt_analysis_duration_ms_bucket{le="+Inf"} 2`)
	assert.Contains(t, out, "ttt_analysis_duration_ms_count 2")
}

func TestPrometheusExporterServeHTTP(t *testing.T) {
	r := NewRegistry()
	r.NewCounter("ttt_analyses_total", "Total token analyses performed", nil)

	srv := httptest.NewServer(NewPrometheusExporter(r))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
}

func TestCheckerWorstStatusWins(t *testing.T) {
	c := NewChecker()
	c.Register("cache", func(context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusHealthy}
	})
	c.Register("provider", func(context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusDegraded, Message: "slow responses"}
	})

	health := c.Check(context.Background())

	assert.Equal(t, StatusDegraded, health.Status)
	assert.Len(t, health.Components, 2)
	assert.Equal(t, "provider", health.Components["provider"].Name)
	assert.Equal(t, "slow responses", health.Components["provider"].Message)
}

func TestCheckerEmpty(t *testing.T) {
	c := NewChecker()
	health := c.Check(context.Background())
	assert.Equal(t, StatusHealthy, health.Status)
	assert.Empty(t, health.Components)
}
