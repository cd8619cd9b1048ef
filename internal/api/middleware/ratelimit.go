package middleware

import (
	"context"
	"encoding/json"
	"enrollment-api/internal/config"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	rateLimitKeyPrefix = "rl:ip:"
	defaultWindow      = time.Minute
)

// incrExpireScript counts hits in a fixed window; the key expires with the window.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

type windowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisWindowCounter struct {
	client redis.Scripter
}

func (c redisWindowCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	return incrExpireScript.Run(ctx, c.client, []string{key}, window.Milliseconds()).Int64()
}

type RateLimiterMiddleware struct {
	limiters sync.Map
	window   windowCounter
	cfg      config.RateLimitConfig
	logger   *slog.Logger
}

// NewRateLimiterMiddleware builds the in-process token bucket limiter.
func NewRateLimiterMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) *RateLimiterMiddleware {
	rl := &RateLimiterMiddleware{
		cfg:    cfg,
		logger: logger.With("component", "RateLimiter", "backend", "memory"),
	}

	go rl.cleanupLimiters()

	return rl
}

// NewRedisRateLimiterMiddleware builds a fixed-window limiter shared by every
// replica through Redis.
func NewRedisRateLimiterMiddleware(cfg config.RateLimitConfig, client redis.Scripter, logger *slog.Logger) *RateLimiterMiddleware {
	return newWindowLimiter(cfg, redisWindowCounter{client: client}, logger)
}

func newWindowLimiter(cfg config.RateLimitConfig, counter windowCounter, logger *slog.Logger) *RateLimiterMiddleware {
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	return &RateLimiterMiddleware{
		window: counter,
		cfg:    cfg,
		logger: logger.With("component", "RateLimiter", "backend", "redis"),
	}
}

func (rl *RateLimiterMiddleware) getLimiter(ip string) *rate.Limiter {
	limiter, exists := rl.limiters.Load(ip)
	if !exists {
		newLimiter := rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)
		actual, _ := rl.limiters.LoadOrStore(ip, newLimiter)
		return actual.(*rate.Limiter)
	}
	return limiter.(*rate.Limiter)
}

func (rl *RateLimiterMiddleware) cleanupLimiters() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.limiters.Range(func(key, value interface{}) bool {
			limiter := value.(*rate.Limiter)
			if limiter.Tokens() >= float64(rl.cfg.Burst) {
				rl.limiters.Delete(key)
			}
			return true
		})
	}
}

// extractIP keys on the connection address only. Forwarding headers are
// honoured solely through chi's RealIP, which the router installs when
// server.trustProxyHeaders is set.
func (rl *RateLimiterMiddleware) extractIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (rl *RateLimiterMiddleware) allow(r *http.Request, ip string) bool {
	if rl.window == nil {
		return rl.getLimiter(ip).Allow()
	}

	count, err := rl.window.Incr(r.Context(), rateLimitKeyPrefix+ip, rl.cfg.Window)
	if err != nil {
		// Fail open while Redis is unreachable.
		rl.logger.Error("Rate limit counter unavailable", "error", err)
		return true
	}
	return count <= int64(rl.cfg.Requests)
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)

		if !rl.allow(r, ip) {
			rl.logger.Warn("Rate limit exceeded", "ip", ip)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{
					"message": "Rate limit exceeded",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
