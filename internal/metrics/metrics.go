package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	export "go.opentelemetry.io/otel/sdk/export/metric"
	"go.opentelemetry.io/otel/sdk/metric/aggregator/histogram"
	controller "go.opentelemetry.io/otel/sdk/metric/controller/basic"
	processor "go.opentelemetry.io/otel/sdk/metric/processor/basic"
	selector "go.opentelemetry.io/otel/sdk/metric/selector/simple"
)

// Latency buckets in seconds.
var latencyBoundaries = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics exports HTTP request metrics in the Prometheus format.
type Metrics struct {
	exporter *prometheus.Exporter
	requests metric.Int64Counter
	duration metric.Float64ValueRecorder
}

// New sets up a pull controller and a Prometheus exporter for the named
// service.
func New(serviceName string) (*Metrics, error) {
	config := prometheus.Config{
		DefaultHistogramBoundaries: latencyBoundaries,
	}
	c := controller.New(
		processor.New(
			selector.NewWithHistogramDistribution(
				histogram.WithExplicitBoundaries(config.DefaultHistogramBoundaries),
			),
			export.CumulativeExportKindSelector(),
			processor.WithMemory(true),
		),
	)

	exporter, err := prometheus.New(config, c)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}

	meter := exporter.MeterProvider().Meter(serviceName)

	return &Metrics{
		exporter: exporter,
		requests: metric.Must(meter).NewInt64Counter(
			"http.server.request_count",
			metric.WithDescription("Count of completed requests, by HTTP method, route and response status"),
		),
		duration: metric.Must(meter).NewFloat64ValueRecorder(
			"http.server.duration",
			metric.WithDescription("Request latency in seconds, by HTTP method, route and response status"),
		),
	}, nil
}

// MeterProvider returns the provider backing the exporter.
func (m *Metrics) MeterProvider() metric.MeterProvider {
	return m.exporter.MeterProvider()
}

// Handler serves the Prometheus exposition.
func (m *Metrics) Handler() http.Handler {
	return m.exporter
}

// Middleware counts and times every request. Routes are labelled with the
// chi route pattern to keep cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		labels := []attribute.KeyValue{
			attribute.String("method", r.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(status)),
		}

		m.requests.Add(r.Context(), 1, labels...)
		m.duration.Record(r.Context(), time.Since(start).Seconds(), labels...)
	})
}
