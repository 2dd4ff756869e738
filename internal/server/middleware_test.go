package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/reverie/internal/server"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_AllowsWithinBurst(t *testing.T) {
	limiter := server.NewRateLimiter(10, 5)
	handler := server.RateLimitMiddleware(okHandler(), limiter)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/stats", nil))
		assert.Equal(t, http.StatusOK, w.Code, "request %d within burst", i)
	}
}

func TestRateLimitMiddleware_RejectsAboveBurst(t *testing.T) {
	limiter := server.NewRateLimiter(0.001, 1)
	handler := server.RateLimitMiddleware(okHandler(), limiter)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/stats", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}
