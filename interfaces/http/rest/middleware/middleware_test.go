package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockHTTPObserver struct {
	mock.Mock
}

func (m *MockHTTPObserver) ObserveHTTP(method, route, status string, duration time.Duration) {
	m.Called(method, route, status, duration)
}

func statusHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func serve(h http.Handler, method, path string) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec.Code
}

func TestCircuitBreaker_OpensOnServerErrors(t *testing.T) {
	// Arrange
	cfg := CircuitBreakerConfig{
		Name:             "test",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
	h := CircuitBreaker(cfg, zap.NewNop())(statusHandler(http.StatusInternalServerError))

	// Act & Assert
	assert.Equal(t, http.StatusInternalServerError, serve(h, http.MethodPost, "/"))
	assert.Equal(t, http.StatusInternalServerError, serve(h, http.MethodPost, "/"))
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodPost, "/"), "breaker is open")
}

func TestCircuitBreaker_IgnoresClientErrors(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("test")
	cfg.MinRequests = 2
	h := CircuitBreaker(cfg, nil)(statusHandler(http.StatusBadRequest))

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPost, "/"))
	}
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	// Arrange
	obs := new(MockHTTPObserver)
	obs.On("ObserveHTTP", http.MethodDelete, "/notes/{noteID}", "204", mock.AnythingOfType("time.Duration")).Once()
	obs.On("ObserveHTTP", http.MethodGet, "/ok", "200", mock.AnythingOfType("time.Duration")).Once()

	r := chi.NewRouter()
	r.Use(Metrics(obs))
	r.Delete("/notes/{noteID}", statusHandler(http.StatusNoContent).ServeHTTP)
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {})

	// Act
	serve(r, http.MethodDelete, "/notes/abc")
	serve(r, http.MethodGet, "/ok")

	// Assert
	obs.AssertExpectations(t)
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	serve(Logger(logger)(statusHandler(http.StatusOK)), http.MethodGet, "/a")
	serve(Logger(logger)(statusHandler(http.StatusBadGateway)), http.MethodGet, "/b")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zap.InfoLevel, entries[0].Level)
		assert.Equal(t, zap.ErrorLevel, entries[1].Level)
		assert.Equal(t, int64(http.StatusBadGateway), entries[1].ContextMap()["status"])
	}
}
