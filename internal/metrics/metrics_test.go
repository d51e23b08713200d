package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blueprint/internal/engine"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	m := New()

	m.ObserveRun(engine.Result{
		Status:  engine.StatusCompleted,
		GasUsed: 12,
		Logs: []engine.ExecutionLog{
			{NodeID: "t", NodeKind: engine.KindTrigger},
			{NodeID: "a", NodeKind: engine.KindAction, GasUsed: 10},
			{NodeID: "v", NodeKind: engine.KindVariable, GasUsed: 2},
		},
	}, time.Millisecond)
	m.ObserveRun(engine.Result{
		Status: engine.StatusFailed,
		Logs:   []engine.ExecutionLog{{NodeID: "system", NodeKind: engine.KindSystem, Error: "Cycle detected"}},
	}, time.Millisecond)
	m.ObserveRun(engine.Result{
		Status: engine.StatusFailed,
		Logs: []engine.ExecutionLog{
			{NodeID: "t", NodeKind: engine.KindTrigger},
			{NodeID: "a", NodeKind: engine.KindAction, Error: "boom"},
		},
	}, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("completed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.nodesExecuted.WithLabelValues(engine.KindTrigger)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.nodesExecuted.WithLabelValues(engine.KindAction)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.nodesExecuted.WithLabelValues(engine.KindSystem)))
	assert.Equal(t, uint64(3), histogramCount(t, m, "blueprint_engine_gas_used"))
}

func histogramCount(t *testing.T, m *Metrics, name string) uint64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/v1/runs/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+id, nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCounter.WithLabelValues("GET", "/api/v1/runs/:id", "404")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "blueprint_api_requests_total")
}
