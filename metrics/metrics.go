package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors. It is separate from the
	// default registry so tests can scrape it deterministically.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "psa",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "psa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "psa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	investmentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "psa",
			Subsystem: "invest",
			Name:      "invoices_created_total",
			Help:      "Pending investments created after a successful invoice request.",
		},
		[]string{"pay_currency"},
	)

	callbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "psa",
			Subsystem: "invest",
			Name:      "callbacks_total",
			Help:      "Payment callbacks by outcome.",
		},
		[]string{"result"},
	)

	withdrawals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "psa",
			Subsystem: "withdraw",
			Name:      "requests_total",
			Help:      "Withdrawal attempts by outcome.",
		},
		[]string{"result"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "psa",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Duration of payment gateway invoice requests.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		investmentsCreated,
		callbacks,
		withdrawals,
		gatewayDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// UnmatchedRoute is the path label for requests no route matched.
const UnmatchedRoute = "unmatched"

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Mount it inside a gorilla/mux router (router.Use) so the path label is the
// route template; requests without a matched route share UnmatchedRoute.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := routeLabel(r)
		if strings.HasSuffix(path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

func RecordInvoiceCreated(payCurrency string) {
	investmentsCreated.WithLabelValues(payCurrency).Inc()
}

// RecordCallback counts a payment callback. Typical results: credited,
// duplicate, ignored, forbidden, not_found, error.
func RecordCallback(result string) {
	callbacks.WithLabelValues(result).Inc()
}

func RecordWithdrawal(result string) {
	withdrawals.WithLabelValues(result).Inc()
}

func RecordGatewayRequest(duration time.Duration, success bool) {
	gatewayDuration.WithLabelValues(strconv.FormatBool(success)).Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routeLabel(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return UnmatchedRoute
	}
	tpl, err := route.GetPathTemplate()
	if err != nil || tpl == "" {
		return UnmatchedRoute
	}
	return tpl
}
