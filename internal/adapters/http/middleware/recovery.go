package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/coinvault/internal/adapters/http/common"
)

// RecoveryConfig - конфигурация для recovery middleware.
type RecoveryConfig struct {
	Logger           *slog.Logger
	EnableStackTrace bool // включать stack trace в логи
}

// DefaultRecoveryConfig - конфигурация по умолчанию.
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		Logger:           slog.Default(),
		EnableStackTrace: true,
	}
}

// Recovery middleware перехватывает панику и возвращает 500 ошибку.
//
// Приложение не падает, stack trace уходит в лог,
// клиент получает стандартный конверт ошибки без деталей.
func Recovery(config *RecoveryConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRecoveryConfig()
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				attrs := []slog.Attr{
					slog.String("error", fmt.Sprintf("%v", err)),
					slog.String("path", c.Request.URL.Path),
					slog.String("method", c.Request.Method),
					slog.String("request_id", GetRequestID(c)),
					slog.String("client_ip", c.ClientIP()),
				}

				if config.EnableStackTrace {
					attrs = append(attrs, slog.String("stack", string(debug.Stack())))
				}

				config.Logger.LogAttrs(c.Request.Context(), slog.LevelError, "panic recovered", attrs...)

				c.AbortWithStatusJSON(http.StatusInternalServerError, common.ErrorResponse{
					Status:  "error",
					Code:    common.ErrCodeInternal,
					Message: "internal server error",
				})
			}
		}()

		c.Next()
	}
}
