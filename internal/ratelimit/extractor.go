package ratelimit

import (
	"context"
	"errors"
	"net"
	"strings"
)

// classifyError classifies Redis errors for metrics
func classifyError(err error) string {
	if err == nil {
		return "none"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	case strings.Contains(errStr, "connection refused"):
		return "connection_refused"
	case strings.Contains(errStr, "connection reset"):
		return "connection_reset"
	case strings.Contains(errStr, "EOF"):
		return "eof"
	case strings.Contains(errStr, "pool"):
		return "pool_exhausted"
	default:
		return "unknown"
	}
}
