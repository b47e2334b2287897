package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aminshahid573/authapi/internal/urls"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RouteResolver maps a request path to a route of the table.
type RouteResolver interface {
	Resolve(path string) (*urls.Match, error)
}

const unmatchedRoute = "unmatched"

// RouteLabel names the route serving r: its reverse name, else its table
// pattern, else the ServeMux pattern that matched it. The mux's catch-all
// "/" mounts the table, so unresolved table paths share a single label.
func RouteLabel(routes RouteResolver, r *http.Request) string {
	if routes != nil {
		if m, err := routes.Resolve(r.URL.Path); err == nil {
			if m.Route.Name != "" {
				return m.Route.Name
			}
			return m.Route.Pattern
		}
	}
	if r.Pattern != "" && r.Pattern != "/" {
		return r.Pattern
	}
	return unmatchedRoute
}

type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	routes   RouteResolver
}

func NewHTTPMetrics(namespace string, reg prometheus.Registerer, routes RouteResolver) *HTTPMetrics {
	if namespace == "" {
		namespace = "app"
	}
	factory := promauto.With(reg)

	return &HTTPMetrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		routes: routes,
	}
}

func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrapResponseWriter(w)

		next.ServeHTTP(rw, r)

		route := RouteLabel(m.routes, r)
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		m.duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
