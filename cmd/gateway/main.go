package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/docsense/gateway/internal/config"
	"github.com/docsense/gateway/internal/frontdoor/docs"
	"github.com/docsense/gateway/internal/intake"
	"github.com/docsense/gateway/internal/proxy"
	"github.com/docsense/gateway/internal/ratelimit"
	"github.com/docsense/gateway/internal/server"
	"github.com/docsense/gateway/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("doc-gateway", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	limits, err := cfg.LimiterSettings()
	if err != nil {
		log.Fatalf("Invalid limiter config: %v", err)
	}
	registry := ratelimit.NewRegistry(limits, ratelimit.NewMetrics(promRegistry))

	in, err := intake.New(cfg.Upload.StagingDir, logger)
	if err != nil {
		log.Fatalf("Failed to prepare staging dir: %v", err)
	}

	downstreamTimeout, err := cfg.DownstreamTimeout()
	if err != nil {
		log.Fatalf("Invalid downstream config: %v", err)
	}
	client := proxy.NewClient(cfg.Downstream.BaseURL,
		proxy.WithHTTPClient(&http.Client{Timeout: downstreamTimeout}),
		proxy.WithMetrics(proxy.NewMetrics(promRegistry)),
	)

	handler := docs.NewHandler(in, client, logger)

	srv := server.New(server.Options{
		Port:           cfg.Server.Port,
		UploadMaxBytes: cfg.Upload.MaxBytes,
	}, logger, registry, handler, promRegistry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("gateway started",
		slog.Int("port", cfg.Server.Port),
		slog.String("downstream", cfg.Downstream.BaseURL),
		slog.String("staging_dir", cfg.Upload.StagingDir),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-sigChan:
		logger.Info("shutdown signal received, draining requests")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("gateway shutdown complete")
}
