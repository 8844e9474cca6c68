package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ============================================
// Health Handler
// ============================================

// HealthChecker проверяет доступность зависимости (например, БД).
type HealthChecker func(ctx context.Context) error

// HealthHandler обрабатывает health check запросы.
type HealthHandler struct {
	serviceName string
	version     string
	checkDB     HealthChecker
}

// NewHealthHandler создаёт новый HealthHandler.
//
// checkDB может быть nil - тогда состояние БД не проверяется.
func NewHealthHandler(serviceName, version string, checkDB HealthChecker) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		checkDB:     checkDB,
	}
}

// HealthResponse - ответ health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Health обрабатывает GET /health.
//
// 200 если сервис жив и БД отвечает, 503 если БД недоступна.
func (h *HealthHandler) Health(c *gin.Context) {
	if h.checkDB != nil {
		if err := h.checkDB(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status:  "degraded",
				Service: h.serviceName,
				Version: h.version,
			})
			return
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: h.serviceName,
		Version: h.version,
	})
}

// Root обрабатывает GET /. Краткая информация о сервисе.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": h.serviceName,
		"version": h.version,
		"docs":    "/health",
	})
}
