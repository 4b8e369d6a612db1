package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/attend/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(t *testing.T, handler http.Handler, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.RemoteAddr = remoteAddr
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitEnforcesPublicTier(t *testing.T) {
	cfg := config.RateLimitConfig{PublicPerMinute: 2}
	handler := RateLimit(cfg)(okHandler())

	require.Equal(t, http.StatusOK, doRequest(t, handler, "198.51.100.7:1234", nil).Code)
	require.Equal(t, http.StatusOK, doRequest(t, handler, "198.51.100.7:1234", nil).Code)

	rec := doRequest(t, handler, "198.51.100.7:1234", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitPerClientIsolation(t *testing.T) {
	cfg := config.RateLimitConfig{PublicPerMinute: 1}
	handler := RateLimit(cfg)(okHandler())

	require.Equal(t, http.StatusOK, doRequest(t, handler, "198.51.100.7:1234", nil).Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(t, handler, "198.51.100.7:1234", nil).Code)
	require.Equal(t, http.StatusOK, doRequest(t, handler, "203.0.113.9:1234", nil).Code)
}

func TestRateLimitZeroDisablesTier(t *testing.T) {
	cfg := config.RateLimitConfig{PublicPerMinute: 0}
	handler := RateLimit(cfg)(okHandler())

	for range 20 {
		require.Equal(t, http.StatusOK, doRequest(t, handler, "198.51.100.7:1234", nil).Code)
	}
}

func TestRateLimitLoginTier(t *testing.T) {
	cfg := config.RateLimitConfig{LoginPer15Minutes: 2}
	// the tier tag must be set before the limiter sees the request
	tagged := WithRateLimitTierHandler(TierLogin)(RateLimit(cfg)(okHandler()))

	require.Equal(t, http.StatusOK, doRequest(t, tagged, "198.51.100.7:1234", nil).Code)
	require.Equal(t, http.StatusOK, doRequest(t, tagged, "198.51.100.7:1234", nil).Code)

	rec := doRequest(t, tagged, "198.51.100.7:1234", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "180", rec.Header().Get("Retry-After"))
}

func TestRateLimitSkipsHealthEndpoints(t *testing.T) {
	cfg := config.RateLimitConfig{PublicPerMinute: 1}
	handler := RateLimit(cfg)(okHandler())

	for range 5 {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "198.51.100.7:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestClientKeyIgnoresForwardedFromUntrustedPeer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")

	require.Equal(t, "198.51.100.7", clientKey(req, nil))
}

func TestClientKeyTrustsConfiguredProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.7")

	require.Equal(t, "203.0.113.9", clientKey(req, []string{"198.51.100.0/24"}))
}
