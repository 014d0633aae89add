package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Counter counts hits per key in a fixed window. redisclient.Client
// implements it for limits shared across instances.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int, resetIn time.Duration, err error)
}

// MemoryCounter is the per-process Counter, used alone when Redis is not
// configured and as the fallback when it is unreachable.
type MemoryCounter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (m *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.clients[key]
	if !ok || now.After(b.windowEnd) {
		b = &clientBucket{windowEnd: now.Add(window)}
		m.clients[key] = b
		m.sweep(now)
	}

	b.count++
	return b.count, b.windowEnd.Sub(now), nil
}

// sweep drops expired buckets so the map does not grow with every client ever
// seen. Called with mu held, only when a new window opens.
func (m *MemoryCounter) sweep(now time.Time) {
	for k, b := range m.clients {
		if now.After(b.windowEnd) {
			delete(m.clients, k)
		}
	}
}

type RateLimiter struct {
	counter  Counter
	fallback Counter
	limit    int
	window   time.Duration
	log      *slog.Logger
	onLimit  func()
}

// NewRateLimiter uses primary when it answers and fallback otherwise. Pass a
// nil primary to count in memory only.
func NewRateLimiter(primary Counter, limit int, window time.Duration, log *slog.Logger, onLimit func()) *RateLimiter {
	fallback := NewMemoryCounter()
	if primary == nil {
		primary = fallback
	}
	if log == nil {
		log = slog.Default()
	}
	return &RateLimiter{
		counter:  primary,
		fallback: fallback,
		limit:    limit,
		window:   window,
		log:      log,
		onLimit:  onLimit,
	}
}

// RateLimiterMiddleware enforces the limit for a key derived from the request.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		count, resetIn, err := rl.counter.Hit(c.Request.Context(), key, rl.window)
		if err != nil {
			rl.log.WarnContext(c.Request.Context(), "rate limit counter unavailable, using local counter", "err", err)
			count, resetIn, _ = rl.fallback.Hit(c.Request.Context(), key, rl.window)
		}

		remaining := rl.limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > rl.limit {
			retryAfter := int(resetIn.Round(time.Second).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}

			if rl.onLimit != nil {
				rl.onLimit()
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

// KeyByIP is for unauthenticated endpoints.
func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c)
}

// KeyByUserOrIP prefers the authenticated user when one is on the context.
func KeyByUserOrIP(c *gin.Context) string {
	if id, ok := UserIDFromContext(c); ok {
		return "user:" + id
	}
	return KeyByIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}

	return ip
}
