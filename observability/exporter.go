package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/benz9527/xtree/lib/infra"
)

type ExporterKind string

const (
	NoneExporter       ExporterKind = "none"
	ConsoleExporter    ExporterKind = "console"
	PrometheusExporter ExporterKind = "prometheus"
)

var ErrUnknownExporter = errors.New("[observability] unknown metrics exporter")

func ParseExporterKind(kind string) (ExporterKind, error) {
	switch k := ExporterKind(strings.ToLower(strings.TrimSpace(kind))); k {
	case "", NoneExporter:
		return NoneExporter, nil
	case ConsoleExporter, PrometheusExporter:
		return k, nil
	default:
	}
	return NoneExporter, infra.WrapErrorStackWithMessage(ErrUnknownExporter, kind)
}

// MetricsExporter owns the global meter provider installed by one of the
// constructors below. Handler is only set for the prometheus exporter.
type MetricsExporter struct {
	Kind     ExporterKind
	Handler  http.Handler
	shutdown func(ctx context.Context) error
}

func (exp *MetricsExporter) Shutdown(ctx context.Context) error {
	if exp == nil || exp.shutdown == nil {
		return nil
	}
	return exp.shutdown(ctx)
}

// NewConsoleMetricsExporter serves for test/dev environment.
// A nil writer means stdout.
func NewConsoleMetricsExporter(w io.Writer, interval, timeout time.Duration) (*MetricsExporter, error) {
	if w == nil {
		w = os.Stdout
	}
	exporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(w),
	)
	if err != nil {
		return nil, infra.WrapErrorStack(err)
	}
	opts := []metric.PeriodicReaderOption{}
	if interval > 0 {
		opts = append(opts, metric.WithInterval(interval))
	}
	if timeout > 0 {
		opts = append(opts, metric.WithTimeout(timeout))
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(exporter, opts...)))
	otel.SetMeterProvider(mp)
	return &MetricsExporter{
		Kind:     ConsoleExporter,
		shutdown: mp.Shutdown,
	}, nil
}

// NewPrometheusMetricsExporter serves for the product environment.
// The stats are fetched by HTTP through the returned handler. Every call
// uses its own registry, so it is safe to build more than one.
func NewPrometheusMetricsExporter() (*MetricsExporter, error) {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(
		prometheus.WithRegisterer(registry),
	)
	if err != nil {
		return nil, infra.WrapErrorStack(err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return &MetricsExporter{
		Kind:     PrometheusExporter,
		Handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		shutdown: mp.Shutdown,
	}, nil
}

// NewMetricsExporter leaves the global noop provider untouched for
// NoneExporter.
func NewMetricsExporter(kind ExporterKind, w io.Writer, interval time.Duration) (*MetricsExporter, error) {
	switch kind {
	case ConsoleExporter:
		return NewConsoleMetricsExporter(w, interval, interval)
	case PrometheusExporter:
		return NewPrometheusMetricsExporter()
	case NoneExporter:
		return &MetricsExporter{Kind: NoneExporter}, nil
	default:
	}
	return nil, infra.WrapErrorStackWithMessage(ErrUnknownExporter, string(kind))
}
