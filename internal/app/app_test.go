package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/dailymenu/internal/domain/auth"
	"github.com/xenking/dailymenu/internal/domain/food"
	"github.com/xenking/dailymenu/internal/handler"
	"github.com/xenking/dailymenu/pkg/httpmiddleware"
)

const (
	testAPIKey = "integration-test-key"
	testPepper = "test-pepper"
)

type noopTelemetry struct{}

func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }
func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }

// startServer assembles the API over the memory driver, seeds one food and
// an admin key, and serves it on a local listener.
func startServer(t *testing.T, modify func(*Config)) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := validConfig()
	cfg.Auth.APIKeyPepper = testPepper
	cfg.RateLimit = RateLimitConfig{Max: 1000, Window: time.Minute}
	cfg.CORS.Origins = []string{"*"}
	if modify != nil {
		modify(&cfg)
	}

	st, err := OpenStorage(ctx, &cfg)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	require.NoError(t, st.Foods.Upsert(ctx, food.Food{
		ID:    "egg-hoppers",
		Name:  "Egg Hoppers",
		Price: decimal.RequireFromString("250.00"),
	}))
	require.NoError(t, st.APIKeys.Upsert(ctx, &auth.APIKeyInfo{
		ID:      "seed",
		KeyHash: auth.HashKey([]byte(testPepper), testAPIKey),
		Name:    "seed-admin",
		Scopes:  []string{auth.ScopeAdmin},
	}))

	svc, err := build(ctx, &cfg, st, noopTelemetry{})
	require.NoError(t, err)
	t.Cleanup(svc.close)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.health.Run(ctx, 20*time.Millisecond)
	}()
	t.Cleanup(func() { cancel(); <-done })
	svc.health.SetReady(true)

	srv := httptest.NewServer(svc.handler)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, &buf)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	srv := startServer(t, nil)

	for _, path := range []string{"/livez", "/readyz"} {
		assert.Eventually(t, func() bool {
			resp := doRequest(t, srv, http.MethodGet, path, nil, nil)
			return resp.StatusCode == http.StatusOK
		}, 2*time.Second, 20*time.Millisecond, path)
	}

	resp := doRequest(t, srv, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, "ok", decodeJSON[map[string]any](t, resp)["status"])
}

func TestRequestID(t *testing.T) {
	srv := startServer(t, nil)

	resp := doRequest(t, srv, http.MethodGet, "/api/foods", nil, nil)
	assert.NotEmpty(t, resp.Header.Get(httpmiddleware.RequestIDHeader))

	resp = doRequest(t, srv, http.MethodGet, "/api/foods", nil, map[string]string{
		httpmiddleware.RequestIDHeader: "custom-request-id-12345",
	})
	assert.Equal(t, "custom-request-id-12345", resp.Header.Get(httpmiddleware.RequestIDHeader))
}

func TestCORS(t *testing.T) {
	srv := startServer(t, nil)

	resp := doRequest(t, srv, http.MethodOptions, "/api/foods/daily", nil, map[string]string{
		"Origin":                        "http://example.com",
		"Access-Control-Request-Method": "GET",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), handler.APIKeyHeader)

	resp = doRequest(t, srv, http.MethodGet, "/api/foods", nil, map[string]string{
		"Origin": "http://example.com",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	srv := startServer(t, func(c *Config) {
		c.RateLimit = RateLimitConfig{Max: 2, Window: time.Hour}
	})

	for range 2 {
		resp := doRequest(t, srv, http.MethodGet, "/api/foods", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}

	resp := doRequest(t, srv, http.MethodGet, "/api/foods", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestOrderFlow(t *testing.T) {
	srv := startServer(t, nil)
	admin := map[string]string{handler.APIKeyHeader: testAPIKey}

	resp := doRequest(t, srv, http.MethodPost, "/api/admin/foods/daily",
		map[string]any{"foodId": "egg-hoppers", "quantity": 10}, admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decodeJSON[map[string]any](t, resp)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.CustomerClaims{
		Name: "Kamala",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "cust-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	resp = doRequest(t, srv, http.MethodPost, "/api/orders/place", map[string]any{
		"items":        []map[string]any{{"foodId": item["id"], "qty": 3}},
		"customerName": "Kamala",
		"phone":        "0712345678",
		"location":     "Galle",
		"total":        750,
	}, map[string]string{"Authorization": "Bearer " + tok})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	placed := decodeJSON[map[string]any](t, resp)
	assert.EqualValues(t, 1001, placed["orderNumber"])

	resp = doRequest(t, srv, http.MethodGet, "/api/admin/orders?location=galle", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeJSON[[]map[string]any](t, resp), 1)

	resp = doRequest(t, srv, http.MethodGet, "/api/foods/daily", nil, nil)
	daily := decodeJSON[[]map[string]any](t, resp)
	require.Len(t, daily, 1)
	assert.EqualValues(t, 7, daily[0]["quantityRemaining"])
}
