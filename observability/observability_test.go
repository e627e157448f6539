package observability

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestParseExporterKind(t *testing.T) {
	testcases := []struct {
		name     string
		input    string
		expected ExporterKind
		hasErr   bool
	}{
		{"empty", "", NoneExporter, false},
		{"none", "none", NoneExporter, false},
		{"console", " Console ", ConsoleExporter, false},
		{"prometheus", "PROMETHEUS", PrometheusExporter, false},
		{"unknown", "otlp", NoneExporter, true},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			kind, err := ParseExporterKind(tc.input)
			if tc.hasErr {
				require.ErrorIs(tt, err, ErrUnknownExporter)
				return
			}
			require.NoError(tt, err)
			require.Equal(tt, tc.expected, kind)
		})
	}
}

func TestConsoleMetricsExporter(t *testing.T) {
	buf := &bytes.Buffer{}
	exp, err := NewConsoleMetricsExporter(buf, time.Hour, time.Second)
	require.NoError(t, err)
	require.Equal(t, ConsoleExporter, exp.Kind)
	require.Nil(t, exp.Handler)

	counter, err := otel.Meter("xtree/test/console").Int64Counter("test.console.count")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	// Shutdown flushes the last collection to the writer.
	require.NoError(t, exp.Shutdown(context.Background()))
	require.Contains(t, buf.String(), "test.console.count")
}

func TestPrometheusMetricsExporter(t *testing.T) {
	exp, err := NewPrometheusMetricsExporter()
	require.NoError(t, err)
	require.Equal(t, PrometheusExporter, exp.Kind)
	require.NotNil(t, exp.Handler)
	defer func() {
		require.NoError(t, exp.Shutdown(context.Background()))
	}()

	counter, err := otel.Meter("xtree/test/prometheus").Int64Counter("test_prometheus_count")
	require.NoError(t, err)
	counter.Add(context.Background(), 7)

	srv := httptest.NewServer(exp.Handler)
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "test_prometheus_count")
}

func TestNewMetricsExporter(t *testing.T) {
	exp, err := NewMetricsExporter(NoneExporter, nil, 0)
	require.NoError(t, err)
	require.Equal(t, NoneExporter, exp.Kind)
	require.NoError(t, exp.Shutdown(context.Background()))

	var nilExp *MetricsExporter
	require.NoError(t, nilExp.Shutdown(context.Background()))

	_, err = NewMetricsExporter(ExporterKind("otlp"), nil, 0)
	require.ErrorIs(t, err, ErrUnknownExporter)
}

func TestInitAppStats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	defer func() {
		_ = mp.Shutdown(context.Background())
	}()

	InitAppStats("test")
	InitAppStats("ignored")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != AppStatsName+"/test" {
			continue
		}
		for _, m := range sm.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[int64]); ok && len(g.DataPoints) > 0 {
				names[m.Name] = g.DataPoints[0].Value
			}
		}
	}
	require.Greater(t, names["app.goroutines"], int64(0))
	require.Greater(t, names["app.procs"], int64(0))
	require.Greater(t, names["app.rss"], int64(0))
}

func TestProcessRSS(t *testing.T) {
	rss, err := ProcessRSS()
	require.NoError(t, err)
	require.Greater(t, rss, uint64(0))
}
