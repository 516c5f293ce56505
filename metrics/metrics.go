package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Metrics struct {
	registry          *promclient.Registry
	provider          *metric.MeterProvider
	meter             api.Meter
	apiTimeMetric     api.Float64Histogram
	generationSeconds api.Float64Histogram
}

// SetupMetrics bootstraps the OpenTelemetry pipeline on a private Prometheus
// registry. Call Shutdown when done.
func SetupMetrics() (*Metrics, error) {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}
	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	meter := provider.Meter("github.com/vidgen/vidgen")

	apiTimeMetric, err := meter.Float64Histogram("api_call", api.WithDescription("api calls"), api.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	generationSeconds, err := meter.Float64Histogram("vidgen_generation_duration",
		api.WithDescription("time spent producing a video, by backend and outcome"),
		api.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registry:          registry,
		provider:          provider,
		meter:             meter,
		apiTimeMetric:     apiTimeMetric,
		generationSeconds: generationSeconds,
	}, nil
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

// ObserveGeneration records one generator call. outcome is "success" or the
// failure kind.
func (m *Metrics) ObserveGeneration(backend, outcome string, duration time.Duration) {
	opts := api.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("outcome", outcome),
	)
	m.generationSeconds.Record(context.Background(), duration.Seconds(), opts)
}

func (m *Metrics) ObserveAPICall(method string, path string, duration float64) {
	opts := api.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	)
	m.apiTimeMetric.Record(context.Background(), duration, opts)
}

// APIMiddleware times every request except the metrics endpoint itself.
func APIMiddleware(m *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			m.ObserveAPICall(c.Request().Method, c.Path(), time.Since(start).Seconds())
			return err
		}
	}
}
