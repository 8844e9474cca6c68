// Package middleware содержит HTTP middleware кошелькового сервиса.
//
// Middleware в Gin - это функции, которые выполняются до/после handlers.
// Они используются для cross-cutting concerns: логирование, auth, tracing.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Haleralex/coinvault/internal/adapters/http/common"
	"github.com/Haleralex/coinvault/internal/pkg/logger"
)

// RequestID middleware добавляет уникальный ID к каждому запросу.
//
// Если клиент передаёт X-Request-ID - используем его,
// иначе генерируем новый UUID. ID кладётся и в gin контекст,
// и в request context, чтобы slog автоматически добавлял его в логи.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(common.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		common.SetRequestID(c, requestID)

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID извлекает Request ID из контекста Gin.
func GetRequestID(c *gin.Context) string {
	return common.GetRequestID(c)
}
