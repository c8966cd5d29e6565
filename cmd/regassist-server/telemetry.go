package main

import (
	"context"
	"log/slog"

	"regassist-backend/lib/restyutil"
	"regassist-backend/lib/scrapers/portal"
	"regassist-backend/lib/serviceutil"
	"regassist-backend/lib/telemetry"

	"go.opentelemetry.io/otel"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	err := telemetry.SetupFromEnv(ctx, "regassist-server")
	if err != nil {
		slog.Warn("telemetry is not exported", "err", err)
	}
	err = telemetry.InstrumentPerfStats(ctx, otel.GetMeterProvider())
	if err != nil {
		serviceutil.Fatal("instrument perf stats", err)
	}

	if !verbose {
		return
	}
	out, err := restyutil.NewFilesystemOutput("<dev_state>/resty_telemetry/portal")
	if err != nil {
		serviceutil.Fatal("create resty telemetry output", err)
	}
	portal.SetRestyInstrumentOutput(out)
}
