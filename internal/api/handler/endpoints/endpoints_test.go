package endpoints

import (
	"blueprint/internal/api/handler/response"
	"blueprint/internal/api/models"
	"blueprint/internal/api/service"
	"blueprint/internal/engine"
	"blueprint/internal/game"
	"blueprint/internal/metrics"
	"blueprint/internal/remote"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStore struct {
	mu   sync.Mutex
	runs []models.Run
	err  error
}

func (s *fakeStore) Create(_ context.Context, run *models.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	run.CreatedAt = time.Date(2026, 1, 1, 0, 0, len(s.runs), 0, time.UTC)
	s.runs = append(s.runs, *run)
	return nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Run{}, gorm.ErrRecordNotFound
}

func (s *fakeStore) FindByIdempotencyKey(_ context.Context, key string) (models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.IdempotencyKey != nil && *r.IdempotencyKey == key {
			return r, nil
		}
	}
	return models.Run{}, gorm.ErrRecordNotFound
}

func (s *fakeStore) List(_ context.Context, limit int) ([]models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Run
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *fakeStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &fakeStore{}
	m := metrics.New()
	svc := service.NewRunServiceWith(service.RunServiceDeps{
		Engine:        game.NewEngine(),
		Store:         store,
		Metrics:       m,
		Logger:        zerolog.Nop(),
		DefaultMaxGas: 1000,
		BatchLimit:    2,
	})

	router := gin.New()
	router.Use(m.Middleware())
	BlueprintHandler(router, svc)
	RunHandler(router, svc)
	SystemHandler(router, m)
	return router, store
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func sample() engine.Blueprint {
	return engine.Blueprint{
		Nodes: []engine.Node{
			{ID: "start", Kind: engine.KindTrigger},
			{ID: "gen", Kind: game.KindGenerator, Data: map[string]any{"amount": 3}},
		},
		Edges: []engine.Edge{{ID: "e1", Source: "start", Target: "gen"}},
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/blueprints/analyze", gin.H{"blueprint": sample()}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	ok := decode[engine.Analysis](t, w)
	assert.True(t, ok.Success)
	require.Len(t, ok.Order, 2)
	assert.Equal(t, "start", ok.Order[0].ID)

	cyclic := sample()
	cyclic.Edges = append(cyclic.Edges, engine.Edge{ID: "e2", Source: "gen", Target: "start"})
	w = doJSON(t, router, http.MethodPost, "/api/v1/blueprints/analyze", gin.H{"blueprint": cyclic}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	bad := decode[engine.Analysis](t, w)
	assert.False(t, bad.Success)
	require.NotNil(t, bad.Error)
	assert.Equal(t, engine.CodeCycleDetected, bad.Error.Code)
	assert.Equal(t, []string{"start", "gen"}, bad.Error.NodeIDs)
}

func TestExecuteEndpoint(t *testing.T) {
	router, store := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/blueprints/execute", gin.H{
		"blueprint": sample(),
		"config":    gin.H{"maxGas": 100},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	out := decode[response.Execution](t, w)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, engine.StatusCompleted, out.Result.Status)
	assert.Equal(t, 3.0, out.Result.ResourceDelta)
	assert.Equal(t, int64(15), out.Result.GasUsed)
	assert.Equal(t, int64(85), out.Result.GasRemaining)
	require.Len(t, store.runs, 1)
	assert.Equal(t, out.RunID, store.runs[0].ID)
}

func TestExecuteEndpoint_BlueprintFailuresAreResults(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/blueprints/execute", gin.H{
		"blueprint": engine.Blueprint{Nodes: []engine.Node{{ID: "x", Kind: "teleport"}, {ID: "t", Kind: engine.KindTrigger}}},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	out := decode[response.Execution](t, w)
	assert.Equal(t, engine.StatusFailed, out.Result.Status)
	assert.Equal(t, "No runtime found for node kind: teleport", out.Result.Error)
}

func TestExecuteEndpoint_Idempotency(t *testing.T) {
	router, store := setupRouter(t)
	headers := map[string]string{remote.IdempotencyHeader: "retry-1"}
	body := gin.H{"blueprint": sample()}

	first := doJSON(t, router, http.MethodPost, "/api/v1/blueprints/execute", body, headers)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get(ReplayedHeader))

	second := doJSON(t, router, http.MethodPost, "/api/v1/blueprints/execute", body, headers)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))

	assert.Equal(t, decode[response.Execution](t, first).RunID, decode[response.Execution](t, second).RunID)
	assert.Len(t, store.runs, 1)
}

func TestExecuteEndpoint_BadRequests(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "malformed json", body: `{"blueprint":`},
		{name: "node without id", body: gin.H{"blueprint": gin.H{"nodes": []gin.H{{"kind": "trigger"}}}}},
		{name: "edge without target", body: gin.H{"blueprint": gin.H{
			"nodes": []gin.H{{"id": "t", "kind": "trigger"}},
			"edges": []gin.H{{"id": "e", "source": "t"}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/v1/blueprints/execute", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Invalid request body", decode[response.APIError](t, w).Message)
		})
	}
}

func TestExecuteEndpoint_StoreFailure(t *testing.T) {
	router, store := setupRouter(t)
	store.err = errors.New("connection refused")

	w := doJSON(t, router, http.MethodPost, "/api/v1/blueprints/execute", gin.H{"blueprint": sample()}, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestExecuteBatchEndpoint(t *testing.T) {
	router, store := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/blueprints/execute/batch", gin.H{"runs": []gin.H{
		{"blueprint": sample()},
		{"blueprint": sample(), "config": gin.H{"maxGas": 10}},
	}}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	out := decode[response.Batch](t, w)
	require.Len(t, out.Runs, 2)
	assert.Equal(t, engine.StatusCompleted, out.Runs[0].Result.Status)
	assert.Equal(t, engine.StatusOutOfGas, out.Runs[1].Result.Status)
	assert.Len(t, store.runs, 2)

	w = doJSON(t, router, http.MethodPost, "/api/v1/blueprints/execute/batch", gin.H{"runs": []gin.H{}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuntimesEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/runtimes", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	runtimes := decode[[]response.Runtime](t, w)
	require.Len(t, runtimes, 6)
	assert.Equal(t, response.Runtime{Kind: "action", GasCost: 10}, runtimes[0])
}

func TestRunEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	var ids []string
	for range 3 {
		w := doJSON(t, router, http.MethodPost, "/api/v1/blueprints/execute", gin.H{"blueprint": sample()}, nil)
		require.Equal(t, http.StatusOK, w.Code)
		ids = append(ids, decode[response.Execution](t, w).RunID)
	}

	w := doJSON(t, router, http.MethodGet, "/api/v1/runs?limit=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]response.Run](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)

	w = doJSON(t, router, http.MethodGet, "/api/v1/runs?limit=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/runs/"+ids[0], nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[response.RunWithDetails](t, w)
	assert.Equal(t, ids[0], detail.ID)
	assert.Len(t, detail.Blueprint.Nodes, 2)
	assert.Equal(t, engine.StatusCompleted, detail.Result.Status)

	w = doJSON(t, router, http.MethodGet, "/api/v1/runs/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSystemEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	doJSON(t, router, http.MethodPost, "/api/v1/blueprints/execute", gin.H{"blueprint": sample()}, nil)
	w = doJSON(t, router, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `blueprint_engine_runs_total{status="completed"} 1`)
}
