package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aminshahid573/authapi/internal/cache"
	"github.com/aminshahid573/authapi/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rate_limit:"

// Lua script for atomic sliding window rate limiting
const luaScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local member = ARGV[4]

-- Remove old entries outside the window
redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

-- Count current entries
local count = redis.call('ZCARD', key)

-- Calculate oldest timestamp in window for reset calculation
local oldest = nil
if count > 0 then
    local oldest_entries = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    if #oldest_entries > 0 then
        oldest = tonumber(oldest_entries[2])
    end
end

if count < limit then
    redis.call('ZADD', key, now, member)
    redis.call('PEXPIRE', key, window)
    local reset_time = oldest and (oldest + window) or (now + window)
    return {1, limit - count - 1, reset_time}
else
    local reset_time = oldest and (oldest + window) or (now + window)
    return {0, 0, reset_time}
end
`

// RateLimiter is a global per-IP sliding window limiter backed by Redis.
type RateLimiter struct {
	client        *redis.Client
	limit         int
	window        time.Duration
	script        *redis.Script
	metrics       *Metrics
	logger        *slog.Logger
	endpointLabel func(*http.Request) string

	// For periodic metrics collection
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	sequence atomic.Uint64
}

// Option configures a RateLimiter.
type Option func(*RateLimiter)

// WithEndpointLabel sets how requests are labelled in metrics. The default
// labels every request "all".
func WithEndpointLabel(label func(*http.Request) string) Option {
	return func(rl *RateLimiter) {
		rl.endpointLabel = label
	}
}

// NewRateLimiter creates a limiter sharing redisClient's connection pool.
func NewRateLimiter(cfg *config.Config, redisClient *cache.RedisClient, reg prometheus.Registerer, logger *slog.Logger, opts ...Option) (*RateLimiter, error) {
	if !cfg.RateLimit.Enabled {
		return nil, fmt.Errorf("rate limiting is disabled in config")
	}

	limit := cfg.RateLimit.RequestsPerMinute
	if limit == 0 {
		limit = 100 // default
	}

	window := time.Duration(cfg.RateLimit.Window) * time.Second
	if window == 0 {
		window = time.Minute // default
	}

	metricsNamespace := cfg.RateLimit.MetricsNamespace
	if metricsNamespace == "" {
		metricsNamespace = cfg.App.Name
	}

	rl := &RateLimiter{
		client:        redisClient.Client(),
		limit:         limit,
		window:        window,
		script:        redis.NewScript(luaScript),
		metrics:       NewMetrics(metricsNamespace, reg),
		logger:        logger,
		endpointLabel: func(*http.Request) string { return "all" },
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}

	rl.startMetricsCollection()

	return rl, nil
}

// startMetricsCollection starts periodic collection of Redis metrics
func (rl *RateLimiter) startMetricsCollection() {
	rl.wg.Add(1)
	go func() {
		defer rl.wg.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.collectRedisMetrics()
			case <-rl.stopCh:
				return
			}
		}
	}()
}

func (rl *RateLimiter) collectRedisMetrics() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	keys, err := rl.scanKeys(ctx, 0)
	if err != nil {
		rl.logger.Warn("Failed to collect rate limit metrics", "error", err)
		rl.metrics.redisErrors.WithLabelValues("scan", classifyError(err)).Inc()
		return
	}

	rl.metrics.activeRateLimits.Set(float64(len(keys)))
}

// scanKeys walks the limiter's keys with SCAN. limit bounds the result when
// positive.
func (rl *RateLimiter) scanKeys(ctx context.Context, limit int) ([]string, error) {
	var keys []string
	iter := rl.client.Scan(ctx, 0, keyPrefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if limit > 0 && len(keys) >= limit {
			break
		}
	}
	return keys, iter.Err()
}

// Close stops background metrics collection. The Redis client is owned by
// the cache and is not closed.
func (rl *RateLimiter) Close() error {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
	rl.wg.Wait()
	return nil
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats(ctx context.Context) (*Stats, error) {
	keys, err := rl.scanKeys(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}

	stats := &Stats{
		Limit:         rl.limit,
		WindowSeconds: int(rl.window.Seconds()),
		ActiveLimits:  len(keys),
		Limits:        make([]LimitInfo, 0, min(len(keys), 100)),
	}

	// Sample up to 100 keys to avoid overwhelming Redis
	for _, key := range keys[:min(len(keys), 100)] {
		count, err := rl.client.ZCard(ctx, key).Result()
		if err != nil {
			continue
		}

		ttl, err := rl.client.PTTL(ctx, key).Result()
		if err != nil {
			continue
		}

		stats.Limits = append(stats.Limits, LimitInfo{
			IP:         strings.TrimPrefix(key, keyPrefix),
			Count:      int(count),
			TTLSeconds: ttl.Seconds(),
			Remaining:  max(rl.limit-int(count), 0),
		})
	}

	return stats, nil
}

// nextMember returns a unique sorted-set member so that requests landing
// in the same millisecond are counted separately.
func (rl *RateLimiter) nextMember(now int64) string {
	return fmt.Sprintf("%d-%d", now, rl.sequence.Add(1))
}

// Stats holds rate limiter statistics
type Stats struct {
	Limit         int         `json:"limit"`
	WindowSeconds int         `json:"window_seconds"`
	ActiveLimits  int         `json:"active_limits"`
	Limits        []LimitInfo `json:"sample"`
}

// LimitInfo holds information about a single rate limit
type LimitInfo struct {
	IP         string  `json:"ip"`
	Count      int     `json:"count"`
	TTLSeconds float64 `json:"ttl_seconds"`
	Remaining  int     `json:"remaining"`
}
