package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/cache"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/ratelimit"
)

func testConfig() *config.Config {
	return &config.Config{
		QuoteCacheTTL:       time.Minute,
		RateLimitWindow:     time.Minute,
		RateLimitMax:        2,
		RateLimitStrategy:   "fixed",
		RequestBodyMaxBytes: 1024,
		SecurityHeaders:     true,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, client *redis.Client) http.Handler {
	t.Helper()
	rules := catalog.Default()
	reg := prometheus.NewRegistry()
	limiter, err := newLimiter(cfg, client)
	require.NoError(t, err)
	version, err := catalog.Version(rules)
	require.NoError(t, err)
	return newRouter(routerDeps{
		Config: cfg,
		Logger: zerolog.Nop(),
		Rules:  rules,
		Checkout: &checkout.Service{
			Engine:       pricing.MustNewEngine(rules.Set),
			Cache:        cache.NewJSON(client, cfg.QuoteCacheTTL),
			Metrics:      obs.NewCheckoutMetrics("test", reg),
			Logger:       zerolog.Nop(),
			RulesVersion: version,
			Currency:     rules.Currency,
		},
		Limiter:     limiter,
		HTTPMetrics: obs.NewHTTPMetrics("test", nil, reg),
	})
}

func TestRouterCheckoutEndpoints(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitMax = 0
	router := newTestRouter(t, cfg, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/checkout?skus=AAABB", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"total":175}`, rr.Body.String())
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/quote", strings.NewReader(`{"skus":"FFF"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data checkout.Quote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, int64(20), body.Data.Total)
	require.Equal(t, "GBP", body.Data.Currency)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/quote", strings.NewReader(`{"skus":"a"}`)))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRouterCatalogAndHealth(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var listing struct {
		Data     []catalog.Item `json:"data"`
		Currency string         `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	require.Len(t, listing.Data, 26)
	require.Equal(t, "A", listing.Data[0].Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"rules_source":"builtin"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterRateLimitsCheckout(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/checkout?skus=A", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/checkout?skus=A", nil))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestNewLimiterSelectsStrategy(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testConfig()
	cfg.RateLimitStrategy = "sliding"
	limiter, err := newLimiter(cfg, client)
	require.NoError(t, err)
	require.IsType(t, ratelimit.Sliding{}, limiter)

	limiter, err = newLimiter(cfg, nil)
	require.NoError(t, err)
	require.IsType(t, &ratelimit.Fixed{}, limiter)

	cfg.RateLimitMax = 0
	limiter, err = newLimiter(cfg, client)
	require.NoError(t, err)
	require.Nil(t, limiter)
}

func TestProtectPprofRequiresCredentials(t *testing.T) {
	handler := protectPprof(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), "admin", "secret")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.SetBasicAuth("admin", "secret")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}
