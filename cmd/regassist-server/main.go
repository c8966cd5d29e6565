package main

import (
	"context"
	"flag"
	"time"

	"regassist-backend/lib/configutil"
	"regassist-backend/lib/scrapers/portal"
	"regassist-backend/lib/serviceutil"
	"regassist-backend/lib/sqliteutil"
	"regassist-backend/lib/telemetry"
	"regassist-backend/services/enrollment"
	"regassist-backend/services/enrollment/db"
	"regassist-backend/services/registrar"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)
	defer telemetry.Shutdown(context.Background())

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	cfg.setDefaults()

	client, err := portal.NewClient(portal.ClientOptions{
		BaseUrl:           cfg.Portal.BaseUrl,
		TermId:            cfg.Portal.TermId,
		RequestsPerSecond: cfg.Portal.RequestsPerSecond,
		Timeout:           time.Duration(cfg.Portal.TimeoutSeconds) * time.Second,
		CloudflareBypass:  cfg.Portal.CloudflareBypass,
	})
	if err != nil {
		serviceutil.Fatal("init portal client", err)
	}

	database, err := sqliteutil.OpenDB(db.Schema, cfg.Enrollment.Database)
	if err != nil {
		serviceutil.Fatal("open enrollment db", err)
	}
	defer database.Close()
	store := enrollment.NewStore(database, cfg.Enrollment.HashKey, nil)

	keepAlive, err := registrar.NewKeepAliveDaemon(
		client,
		time.Duration(cfg.Server.KeepAliveIntervalSeconds)*time.Second,
	)
	if err != nil {
		serviceutil.Fatal("init keep-alive daemon", err)
	}
	keepAlive.Start(ctx)

	service := registrar.NewService(client, store, keepAlive, registrar.Options{
		StaticDir:      cfg.Server.StaticDir,
		PortalBaseUrl:  cfg.Portal.BaseUrl,
		PromptResponse: cfg.Server.PromptResponse,
		NameCacheSize:  cfg.Server.NameCacheSize,
		NameCacheTTL:   time.Duration(cfg.Server.NameCacheTTLSeconds) * time.Second,
	})

	serviceutil.StartHttpServer(ctx, cfg.Server.Port, service.Handler())
}
