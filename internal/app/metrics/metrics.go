package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "scholarship",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarship",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scholarship",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarship",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Total number of application status transitions.",
		},
		[]string{"from", "to"},
	)

	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarship",
			Subsystem: "workflow",
			Name:      "settlements_total",
			Help:      "Total number of award settlement attempts.",
		},
		[]string{"status"},
	)

	applicationsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "scholarship",
			Subsystem: "workflow",
			Name:      "applications",
			Help:      "Current number of applications per status.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		transitions,
		settlements,
		applicationsByStatus,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// TransitionApplied records a successful status transition.
func TransitionApplied(from, to string) {
	transitions.WithLabelValues(from, to).Inc()
}

// SettlementRecorded records the outcome of a settlement attempt.
func SettlementRecorded(status string) {
	settlements.WithLabelValues(status).Inc()
}

// SetApplicationCount updates the per-status application gauge.
func SetApplicationCount(status string, count int) {
	applicationsByStatus.WithLabelValues(status).Set(float64(count))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource identifiers so metric cardinality stays
// bounded.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(strings.TrimPrefix(raw, "/api"), "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "scholarships":
		if len(parts) == 1 {
			return "/scholarships"
		}
		return "/scholarships/:id"
	case "applications":
		if len(parts) == 1 {
			return "/applications"
		}
		switch parts[1] {
		case "scholarship":
			return "/applications/scholarship/:id"
		case "user":
			if len(parts) >= 4 && parts[2] != "" && parts[3] == "scholarship" {
				return "/applications/user/:id/scholarship/:id"
			}
			return "/applications/user/:id"
		}
		if len(parts) == 3 && parts[2] == "verification" {
			return "/applications/:id/verification"
		}
		return "/applications/:id"
	case "documents":
		return "/documents/:id"
	default:
		return "/" + parts[0]
	}
}
