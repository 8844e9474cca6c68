package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/coinvault/internal/adapters/http/common"
	"github.com/Haleralex/coinvault/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())

	var seen string
	router.GET("/test", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err, "generated request id must be a UUID")
	assert.Equal(t, seen, w.Header().Get(common.RequestIDHeader))
}

func TestRequestID_PropagatesClientID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())

	var fromGin, fromCtx string
	router.GET("/test", func(c *gin.Context) {
		fromGin = GetRequestID(c)
		fromCtx = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(common.RequestIDHeader, "client-supplied-id")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "client-supplied-id", fromGin)
	assert.Equal(t, "client-supplied-id", fromCtx)
	assert.Equal(t, "client-supplied-id", w.Header().Get(common.RequestIDHeader))
}
