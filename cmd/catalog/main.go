package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"KLife/internal/catalog"
	"KLife/internal/config"
	"KLife/pkg/kit"
)

const (
	loadTimeout     = 15 * time.Second
	rateLimitWindow = time.Minute
	rateLimitSweep  = 5 * time.Minute
)

func main() {
	service := "catalog"

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src := catalog.Source{File: cfg.Catalog.File, DSN: cfg.Catalog.DSN}

	lctx, cancel := context.WithTimeout(ctx, loadTimeout)
	store, err := catalog.OpenStore(lctx, src)
	cancel()
	if err != nil {
		log.Fatal("load catalog failed", zap.Error(err), zap.Stringer("source", src))
	}
	log.Info("catalog loaded", zap.Stringer("source", src), zap.Int("products", store.Len()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		CORSOrigins:    cfg.CORS.AllowedOrigins,
	}
	if cfg.Metrics.Secret != "" {
		deps.ScrapeTokens = kit.NewScrapeTokens(cfg.Metrics.Secret)
	}
	if cfg.RateLimit.PerMinute > 0 {
		deps.RateLimiter = kit.NewIPRateLimiter(cfg.RateLimit.PerMinute, rateLimitWindow)
		deps.RateLimiter.TrustForwardedFor = cfg.RateLimit.TrustProxy
		go deps.RateLimiter.RunSweeper(ctx, rateLimitSweep)
	}

	h := catalog.NewHandler(&catalog.Server{Store: store, Log: log}, deps)

	if err := kit.RunHTTPServer(ctx, cfg.Addr(), h, log, cfg.Server.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
