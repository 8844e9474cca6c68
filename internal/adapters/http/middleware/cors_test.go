package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCORSRouter(config *CORSConfig) *gin.Engine {
	router := gin.New()
	router.Use(CORS(config))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func performCORS(router *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/test", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS_AllowAll(t *testing.T) {
	router := newCORSRouter(nil)

	w := performCORS(router, http.MethodGet, "https://app.example.com")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	router := newCORSRouter(nil)

	w := performCORS(router, http.MethodOptions, "https://app.example.com")

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowOrigins = []string{"https://trusted.example.com"}
	router := newCORSRouter(config)

	t.Run("allowed origin", func(t *testing.T) {
		w := performCORS(router, http.MethodGet, "https://trusted.example.com")
		assert.Equal(t, "https://trusted.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin gets no cors headers", func(t *testing.T) {
		w := performCORS(router, http.MethodGet, "https://evil.example.com")
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORS_NoOriginHeader(t *testing.T) {
	router := newCORSRouter(nil)

	w := performCORS(router, http.MethodGet, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
