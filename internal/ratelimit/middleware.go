package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/aminshahid573/authapi/internal/middleware"
)

// Middleware returns the rate limiting middleware with metrics
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ip := middleware.ClientIP(r)
		endpoint := rl.endpointLabel(r)
		key := keyPrefix + ip

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		now := time.Now().UnixMilli()
		windowMs := rl.window.Milliseconds()

		result, err := rl.script.Run(ctx, rl.client,
			[]string{key},
			rl.limit,
			windowMs,
			now,
			rl.nextMember(now),
		).Int64Slice()

		rl.metrics.redisLatency.WithLabelValues("rate_check").Observe(time.Since(startTime).Seconds())

		if err != nil {
			rl.logger.Warn("Rate limit check failed", "error", err)
			rl.metrics.redisErrors.WithLabelValues("rate_check", classifyError(err)).Inc()

			// Fail open: allow request if Redis is down
			next.ServeHTTP(w, r)
			return
		}

		allowed := result[0] == 1
		remaining := result[1]
		resetTime := result[2] // Unix timestamp in milliseconds

		retryAfterSec := (resetTime - now + 999) / 1000
		if retryAfterSec < 0 {
			retryAfterSec = 0
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime/1000, 10))

		rl.metrics.remainingQuota.WithLabelValues(endpoint).Observe(float64(remaining) / float64(rl.limit) * 100)

		if !allowed {
			w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSec, 10))
			rl.metrics.requestsBlocked.WithLabelValues(endpoint).Inc()

			rl.logger.Warn("Rate limit exceeded",
				"ip", ip,
				"endpoint", endpoint,
				"retry_after", retryAfterSec,
			)

			appErr := domain.ErrRateLimitExceeded.WithDetails(map[string]string{
				"retry_after": strconv.FormatInt(retryAfterSec, 10),
			})
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(appErr.StatusCode)
			json.NewEncoder(w).Encode(domain.ErrorResponse{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			})
			return
		}

		rl.metrics.requestsAllowed.WithLabelValues(endpoint).Inc()

		next.ServeHTTP(w, r)
	})
}
