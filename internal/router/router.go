package router

import (
	"log/slog"
	"net/http"

	"github.com/aminshahid573/authapi/internal/middleware"
	"github.com/aminshahid573/authapi/internal/ratelimit"
	"github.com/aminshahid573/authapi/internal/urls"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterConfig holds all dependencies needed for route setup.
type RouterConfig struct {
	// Table serves every path not claimed by the operational endpoints.
	Table *urls.Table

	Authenticate func(http.Handler) http.Handler

	RateLimiter *ratelimit.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Checks      map[string]HealthCheck

	Logger *slog.Logger
}

// Setup mounts the operational endpoints and the route table and returns
// the configured HTTP handler.
func Setup(config RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authMiddleware := config.Authenticate
	if authMiddleware == nil {
		authMiddleware = passthrough
	}

	// Register all routes
	registerPublicRoutes(mux, config.Gatherer, config.Checks)
	registerAdminRoutes(mux, config.RateLimiter, config.Logger, authMiddleware)
	mux.Handle("/", config.Table)

	// Build middleware chain (applied in reverse order)
	var handler http.Handler = mux
	handler = middleware.Recovery(config.Logger)(handler)
	if config.Metrics != nil {
		handler = config.Metrics.Middleware(handler)
	}
	handler = middleware.Logging(config.Logger, config.Table)(handler)
	handler = middleware.RequestID()(handler)

	if config.RateLimiter != nil {
		handler = config.RateLimiter.Middleware(handler)
	}

	return handler
}
