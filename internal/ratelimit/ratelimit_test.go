package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aminshahid573/authapi/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("run script: %w", context.DeadlineExceeded), "timeout"},
		{errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"), "connection_refused"},
		{errors.New("read: connection reset by peer"), "connection_reset"},
		{errors.New("unexpected EOF"), "eof"},
		{errors.New("redis: connection pool timeout"), "timeout"},
		{errors.New("redis: connection pool exhausted"), "pool_exhausted"},
		{errors.New("WRONGTYPE"), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyError(tt.err), "%v", tt.err)
	}
}

func TestNewMetricsRegistersWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.requestsAllowed.WithLabelValues("user_profile").Inc()
	m.requestsBlocked.WithLabelValues("rest_login").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsAllowed.WithLabelValues("user_profile")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsBlocked.WithLabelValues("rest_login")))

	count, err := testutil.GatherAndCount(reg, "test_ratelimit_requests_allowed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewRateLimiterDisabled(t *testing.T) {
	_, err := NewRateLimiter(&config.Config{}, nil, prometheus.NewRegistry(), nil)
	assert.Error(t, err)
}
