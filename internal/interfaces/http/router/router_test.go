package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/ratelimit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "sajtmaskin-test"
	cfg.Security.JWT.Secret = "secret"
	cfg.Security.GuestSessionHeader = "X-Session-ID"
	cfg.Security.GuestSessionCookie = "guest_session"
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"
	return cfg
}

func TestRoutes(t *testing.T) {
	store := ratelimit.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	limiters := ratelimit.Set{
		ratelimit.ScopeAPI:    ratelimit.New(ratelimit.ScopeAPI, store, 100, time.Minute),
		ratelimit.ScopeUpload: ratelimit.New(ratelimit.ScopeUpload, store, 1, time.Minute),
	}
	handlers := &Handlers{
		Health:    handler.NewHealthHandler(nil, nil, "test"),
		RateLimit: handler.NewRateLimitHandler(limiters),
		Repair:    handler.NewRepairHandler(nil),
		Credit:    handler.NewCreditHandler(nil),
	}
	engine := New(testConfig(), handlers, limiters).Engine()

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Session-ID", "guest-9")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, get("/health").Code)
	assert.Equal(t, http.StatusOK, get("/health/live").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/health/ready").Code)
	assert.Equal(t, http.StatusOK, get("/metrics").Code)
	assert.NotEmpty(t, get("/health").Header().Get("X-Request-ID"))

	w := get("/v1/ratelimit/status?scope=upload")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"remaining":1`)
	assert.Equal(t, http.StatusBadRequest, get("/v1/ratelimit/status?scope=nope").Code)

	assert.Equal(t, http.StatusUnauthorized, get("/v1/credits/transactions").Code)
	assert.Equal(t, http.StatusNotFound, get("/v1/workflows/stream").Code)
}
