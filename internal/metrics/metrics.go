// Package metrics exposes the service's prometheus collectors. All recording
// methods are safe on a nil *Metrics so tests can leave it unset.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "learnhub"

type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	AuthEvents         *prometheus.CounterVec
	ThreadEvents       *prometheus.CounterVec
	MailFailures       *prometheus.CounterVec
	NotificationsSwept prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers every collector on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AuthEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Auth lifecycle operations by outcome.",
		}, []string{"operation", "outcome"}),
		ThreadEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thread_events_total",
			Help:      "Course thread mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		MailFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_failures_total",
			Help:      "Mail deliveries that failed, by template.",
		}, []string{"template"}),
		NotificationsSwept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_swept_total",
			Help:      "Read notifications removed by the retention sweep.",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes the registry on ln until ctx is cancelled. Processes
// without an HTTP API, such as the worker, use it to publish their counters.
func (m *Metrics) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) Auth(operation string, err error) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) Thread(operation string, err error) {
	if m == nil {
		return
	}
	m.ThreadEvents.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) MailFailed(template string) {
	if m == nil {
		return
	}
	m.MailFailures.WithLabelValues(template).Inc()
}

func (m *Metrics) Swept(n int64) {
	if m == nil {
		return
	}
	m.NotificationsSwept.Add(float64(n))
}
