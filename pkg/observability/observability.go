package observability

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Domain metrics exposed on /metrics
var (
	// MatchAttempts counts attemptMatch outcomes: matched, unmatched, error
	MatchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_attempts_total",
		Help: "Counselor match attempts by outcome",
	}, []string{"outcome"})

	// RoutedMessages counts chat turns through the router: delivered, degraded, failed
	RoutedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routed_messages_total",
		Help: "Chat turns handled by the message router by result",
	}, []string{"result"})

	// GreetingsSent counts post-match greeting messages persisted
	GreetingsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greetings_sent_total",
		Help: "Greeting messages generated after a successful match",
	})
)

// SetupTracing initializes OpenTelemetry tracing with stdout exporter (for demo; replace with OTLP in prod)
func SetupTracing(serviceName string) func() {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Fatalf("failed to initialize stdouttrace exporter: %v", err)
	}
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return func() { _ = provider.Shutdown(context.Background()) }
}

// SetupPrometheusMetrics initializes Prometheus metrics exporter and exposes /metrics endpoint
func SetupPrometheusMetrics(addr string) *metric.MeterProvider {
	exp, err := otelprom.New()
	if err != nil {
		log.Fatalf("failed to initialize prometheus exporter: %v", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exp))
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(addr, nil)
	}()
	return mp
}
