package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel/metric"
)

const perfStatsMeter = "regassist.perf_stats"

// InstrumentPerfStats registers gauges describing this process. They are
// observed whenever `provider` collects, so nothing runs between exports.
func InstrumentPerfStats(ctx context.Context, provider metric.MeterProvider) error {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return err
	}
	meter := provider.Meter(perfStatsMeter)

	cpuGauge, err := meter.Float64ObservableGauge(
		"process_cpu_percent",
		metric.WithDescription("CPU used by the process since the previous observation."),
	)
	if err != nil {
		return err
	}
	rssGauge, err := meter.Int64ObservableGauge(
		"process_rss_mb",
		metric.WithDescription("Resident memory of the process."),
	)
	if err != nil {
		return err
	}
	heapGauge, err := meter.Int64ObservableGauge(
		"heap_alloc_mb",
		metric.WithDescription("Bytes of allocated heap objects."),
	)
	if err != nil {
		return err
	}
	goroutineGauge, err := meter.Int64ObservableGauge(
		"goroutine_count",
		metric.WithDescription("Live goroutines, every in-flight portal request holds one."),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			// an interval of 0 compares against the previous call
			cpuUsage, err := proc.PercentWithContext(ctx, 0)
			if err == nil {
				o.ObserveFloat64(cpuGauge, cpuUsage)
			} else {
				slog.WarnContext(ctx, "failed to read cpu usage", "err", err)
			}

			memory, err := proc.MemoryInfoWithContext(ctx)
			if err == nil {
				o.ObserveInt64(rssGauge, int64(memory.RSS/1_000_000))
			} else {
				slog.WarnContext(ctx, "failed to read process memory", "err", err)
			}

			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)
			o.ObserveInt64(heapGauge, int64(memStats.HeapAlloc/1_000_000))
			o.ObserveInt64(goroutineGauge, int64(runtime.NumGoroutine()))
			return nil
		},
		cpuGauge, rssGauge, heapGauge, goroutineGauge,
	)
	return err
}
