package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/aminshahid573/authapi/internal/config"
	"github.com/aminshahid573/authapi/internal/domain"
)

// Counter is the subset of cache.RedisClient used for fixed-window counts.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Throttle limits requests per client IP within scope to cfg.Limit per
// cfg.Window seconds. Counter failures let the request through.
func Throttle(counter Counter, cfg config.ThrottleConfig, scope string, logger *slog.Logger) func(http.Handler) http.Handler {
	window := time.Duration(cfg.Window) * time.Second

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled || counter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only preflight requests are exempt. Requests later answered
			// with 405 still count toward the limit.
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("throttle:%s:%s", scope, ClientIP(r))

			allowed, retryAfter, err := checkRateLimit(r.Context(), counter, key, cfg.Limit, window)
			if err != nil {
				logger.Warn("Throttle check failed", "error", err, "scope", scope)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, domain.ErrRateLimitExceeded.WithDetails(map[string]string{
					"retry_after": strconv.Itoa(retryAfter),
				}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func checkRateLimit(ctx context.Context, counter Counter, key string, limit int, window time.Duration) (bool, int, error) {
	count, err := counter.Incr(ctx, key)
	if err != nil {
		return false, 0, err
	}

	// Set expiration on first request
	if count == 1 {
		if err := counter.Expire(ctx, key, window); err != nil {
			return false, 0, err
		}
	}

	if count <= int64(limit) {
		return true, 0, nil
	}

	ttl, err := counter.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return false, int(math.Ceil(ttl.Seconds())), nil
}
