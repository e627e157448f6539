package observability

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/process"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const AppStatsName = "xtree/app"

var once sync.Once

type appStats struct {
	goroutines metric.Int64ObservableGauge
	procs      metric.Int64ObservableGauge
	rss        metric.Int64ObservableGauge
}

func appStatsName(name string) string {
	builder := &strings.Builder{}
	builder.WriteString(AppStatsName)
	builder.WriteString("/")
	if len(strings.TrimSpace(name)) > 0 {
		builder.WriteString(strings.TrimSpace(name))
	} else {
		builder.WriteString("default")
	}
	return builder.String()
}

// ProcessRSS returns the resident set size of the current process in bytes.
func ProcessRSS() (uint64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return mem.RSS, nil
}

// InitAppStats registers the process gauges and the go runtime
// instrumentation on the global meter provider. Only the first call
// takes effect, so the exporter must be installed before it.
func InitAppStats(name string) {
	once.Do(func() {
		meter := otel.Meter(
			appStatsName(name),
			metric.WithInstrumentationVersion(otelruntime.Version()),
		)
		_ = &appStats{
			goroutines: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
				"app.goroutines",
				metric.WithDescription("The number of running goroutines."),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.NumGoroutine()))
					return nil
				}),
			)),
			procs: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
				"app.procs",
				metric.WithDescription("The GOMAXPROCS value."),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.GOMAXPROCS(0)))
					return nil
				}),
			)),
			rss: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
				"app.rss",
				metric.WithUnit("By"),
				metric.WithDescription("The resident set size of the process."),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					rss, err := ProcessRSS()
					if err != nil {
						return err
					}
					ob.Observe(int64(rss))
					return nil
				}),
			)),
		}
		_ = otelruntime.Start(
			otelruntime.WithMinimumReadMemStatsInterval(time.Second),
		)
	})
}
