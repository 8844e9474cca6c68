package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthRouter(checkDB HealthChecker) *gin.Engine {
	router := gin.New()
	handler := NewHealthHandler("Wallet Service", "1.0.0", checkDB)
	router.GET("/", handler.Root)
	router.GET("/health", handler.Health)
	return router
}

func TestHealthHandler_Health(t *testing.T) {
	t.Run("healthy returns 200", func(t *testing.T) {
		router := newHealthRouter(func(ctx context.Context) error { return nil })

		w := performJSON(router, http.MethodGet, "/health", nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
		assert.Contains(t, w.Body.String(), `"service":"Wallet Service"`)
		assert.Contains(t, w.Body.String(), `"version":"1.0.0"`)
	})

	t.Run("database down returns 503", func(t *testing.T) {
		router := newHealthRouter(func(ctx context.Context) error {
			return errors.New("connection refused")
		})

		w := performJSON(router, http.MethodGet, "/health", nil, nil)

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	})

	t.Run("nil checker skips database check", func(t *testing.T) {
		router := newHealthRouter(nil)

		w := performJSON(router, http.MethodGet, "/health", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHealthHandler_Root(t *testing.T) {
	router := newHealthRouter(nil)

	w := performJSON(router, http.MethodGet, "/", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"service":"Wallet Service"`)
}
