package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malikxolo/Customer-Support-agent/internal/agent"
	"github.com/Malikxolo/Customer-Support-agent/internal/cache"
	"github.com/Malikxolo/Customer-Support-agent/internal/confirm"
	"github.com/Malikxolo/Customer-Support-agent/internal/testutil"
	"github.com/Malikxolo/Customer-Support-agent/internal/tools"
	"github.com/Malikxolo/Customer-Support-agent/internal/transcript"
)

const turnAnalysis = `{
	"in_scope": true, "intent": "order_status", "sentiment": "neutral", "urgency": "normal",
	"needs_more_info": false,
	"tools_to_use": [{"tool": "order_status", "parameters": {"order_id": "ORD-1"}}]
}`

func newTestServer(t *testing.T, opts ...Option) (*Server, *cache.Store) {
	t.Helper()

	provider := testutil.NewMockProvider(turnAnalysis, "Your order shipped!")
	reg := tools.NewRegistry()
	reg.MustRegister(tools.NewOrderStatusTool(tools.OrderRecord{OrderID: "ORD-1", Status: "shipped", Item: "kettle"}))

	extractor := transcript.Default()
	store := cache.New()

	orch := agent.NewOrchestrator(agent.OrchestratorParams{
		Extractor:  extractor,
		Analyzer:   agent.NewAnalyzer(provider, "brain", reg, extractor, store, time.Hour, zerolog.Nop()),
		Dispatcher: tools.NewDispatcher(reg, zerolog.Nop()),
		Composer:   agent.NewComposer(provider, "heart", zerolog.Nop()),
		Confirms:   confirm.NewStore(store, 10*time.Minute),
		Store:      store,
		Logger:     zerolog.Nop(),
	})

	return NewServer(orch, store, nil, zerolog.Nop(), opts...), store
}

func TestHandleTurn(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"conversation_id": "conv-1", "message": "Where is my order ORD-1?"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/turns", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your order shipped!")
	assert.Contains(t, rec.Body.String(), `"turn_id"`)
}

func TestHandleTurnBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, body := range []string{"not json", `{"conversation_id": "", "message": "hi"}`, `{"conversation_id": "c", "message": "  "}`} {
		req := httptest.NewRequest(http.MethodPost, "/v1/turns", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.apiKeys = map[string]string{"secret-key": "support-frontend"}

	req := httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthNoAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.apiKeys = map[string]string{"secret-key": "support-frontend"}

	req := httptest.NewRequest(http.MethodGet, "/health?detail=true", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCacheStatsAndClear(t *testing.T) {
	srv, store := newTestServer(t)
	store.Set("k", "v", time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entries":1`)

	req = httptest.NewRequest(http.MethodDelete, "/v1/cache", nil)
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, store.Len())
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, WithRateLimiter(NewRateLimiter(1, 1)))

	req := httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
