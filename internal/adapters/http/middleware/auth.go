package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Haleralex/coinvault/internal/adapters/http/common"
	"github.com/Haleralex/coinvault/internal/application/auth"
	"github.com/Haleralex/coinvault/internal/pkg/logger"
)

const (
	// AccountIDContextKey - ключ для ID аккаунта в gin контексте
	AccountIDContextKey = "auth_account_id"
	// UsernameContextKey - ключ для имени пользователя в gin контексте
	UsernameContextKey = "auth_username"
)

// TokenVerifier валидирует access token и возвращает его claims.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*auth.Claims, error)
}

// Auth middleware проверяет Bearer token.
//
// Схема работы:
// 1. Извлекает токен из заголовка Authorization ("Bearer <token>")
// 2. Валидирует подпись и срок действия через TokenVerifier
// 3. Кладёт ID аккаунта в gin контекст и request context
// 4. Продолжает обработку или возвращает 401
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithUnauthorized(c, "authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := verifier.VerifyToken(parts[1])
		if err != nil {
			abortWithUnauthorized(c, "invalid or expired token")
			return
		}

		accountID, err := uuid.Parse(claims.Subject)
		if err != nil {
			abortWithUnauthorized(c, "invalid token subject")
			return
		}

		c.Set(AccountIDContextKey, accountID)
		c.Set(UsernameContextKey, claims.Username)

		ctx := logger.WithAccountID(c.Request.Context(), accountID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetAccountID извлекает ID авторизованного аккаунта из контекста Gin.
func GetAccountID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(AccountIDContextKey)
	if !exists {
		return uuid.Nil, false
	}
	accountID, ok := value.(uuid.UUID)
	return accountID, ok
}

// GetUsername извлекает имя авторизованного пользователя из контекста Gin.
func GetUsername(c *gin.Context) (string, bool) {
	value, exists := c.Get(UsernameContextKey)
	if !exists {
		return "", false
	}
	username, ok := value.(string)
	return username, ok
}

func abortWithUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, common.ErrorResponse{
		Status:  "error",
		Code:    common.ErrCodeUnauthorized,
		Message: message,
	})
}
