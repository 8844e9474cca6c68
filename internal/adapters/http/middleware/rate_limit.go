package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/coinvault/internal/adapters/http/common"
)

// RateLimitConfig - конфигурация для rate limiting.
//
// In-memory token bucket на инстанс. Для нескольких инстансов
// за балансировщиком лимит получается per-instance.
type RateLimitConfig struct {
	// Limit - запросов на окно
	Limit int
	// Window - размер окна
	Window time.Duration
	// KeyFunc - ключ лимитирования, по умолчанию IP клиента
	KeyFunc func(*gin.Context) string
}

// DefaultRateLimitConfig - конфигурация по умолчанию.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Limit:  100,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// bucket - корзина токенов для одного ключа.
type bucket struct {
	tokens    int
	lastReset time.Time
}

// rateLimiter хранит корзины по ключам.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  *RateLimitConfig
}

// allow списывает токен. Возвращает остаток и время сброса окна.
func (rl *rateLimiter) allow(key string) (bool, int, time.Time) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[key]
	if !exists || now.Sub(b.lastReset) >= rl.config.Window {
		b = &bucket{tokens: rl.config.Limit, lastReset: now}
		rl.buckets[key] = b
	}

	resetAt := b.lastReset.Add(rl.config.Window)
	if b.tokens <= 0 {
		return false, 0, resetAt
	}

	b.tokens--
	return true, b.tokens, resetAt
}

// cleanup удаляет протухшие корзины, чтобы map не рос бесконечно.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.Window)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.mu.Lock()
		for key, b := range rl.buckets {
			if now.Sub(b.lastReset) >= 2*rl.config.Window {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit middleware ограничивает частоту запросов по ключу.
//
// При превышении лимита возвращает 429 и заголовки
// X-RateLimit-Limit / X-RateLimit-Remaining / X-RateLimit-Reset.
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	rl := &rateLimiter{
		buckets: make(map[string]*bucket),
		config:  config,
	}
	go rl.cleanup()

	limitHeader := strconv.Itoa(config.Limit)

	return func(c *gin.Context) {
		allowed, remaining, resetAt := rl.allow(config.KeyFunc(c))

		c.Header("X-RateLimit-Limit", limitHeader)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Status:  "error",
				Code:    "TOO_MANY_REQUESTS",
				Message: "rate limit exceeded, retry later",
			})
			return
		}

		c.Next()
	}
}
