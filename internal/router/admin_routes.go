package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/aminshahid573/authapi/internal/ratelimit"
)

// registerAdminRoutes registers admin/monitoring endpoints.
// The routes are protected by the provided authMiddleware.
func registerAdminRoutes(
	mux *http.ServeMux,
	rl *ratelimit.RateLimiter,
	logger *slog.Logger,
	authMiddleware func(http.Handler) http.Handler,
) {
	mux.Handle("GET /admin/ratelimit/stats", authMiddleware(http.HandlerFunc(handleRateLimitStats(rl, logger))))
}

type rateLimitStatsResponse struct {
	Enabled bool `json:"enabled"`
	*ratelimit.Stats
}

// handleRateLimitStats returns rate limiter statistics with a sample of
// active client windows.
func handleRateLimitStats(rl *ratelimit.RateLimiter, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rl == nil {
			writeJSON(w, http.StatusOK, rateLimitStatsResponse{Enabled: false})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		stats, err := rl.GetStats(ctx)
		if err != nil {
			logger.Error("Failed to get rate limit stats", "error", err)
			appErr := domain.ErrRedisError.WithError(err)
			writeJSON(w, appErr.StatusCode, domain.ErrorResponse{
				Code:    appErr.Code,
				Message: appErr.Message,
			})
			return
		}

		writeJSON(w, http.StatusOK, rateLimitStatsResponse{Enabled: true, Stats: stats})
	}
}
