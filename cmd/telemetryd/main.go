package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironsheep/telemetry-ocr/internal/cache"
	"github.com/ironsheep/telemetry-ocr/internal/config"
	"github.com/ironsheep/telemetry-ocr/internal/extract"
	"github.com/ironsheep/telemetry-ocr/internal/monitor"
	"github.com/ironsheep/telemetry-ocr/internal/ocr"
	"github.com/ironsheep/telemetry-ocr/internal/pipeline"
	"github.com/ironsheep/telemetry-ocr/internal/resilience"
	"github.com/ironsheep/telemetry-ocr/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("telemetryd %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("telemetryd - OCR field extraction service for telemetry displays")
			fmt.Println()
			fmt.Println("Usage: telemetryd [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  TELEMETRYD_CONFIG=path        Config file (default: telemetryd.yaml)")
			fmt.Println("  TELEMETRYD_LOG_LEVEL=debug    Enable debug logging")
			return
		}
	}

	logger := newLogger(os.Getenv("TELEMETRYD_LOG_LEVEL"))

	cfgPath := os.Getenv("TELEMETRYD_CONFIG")
	if cfgPath == "" {
		cfgPath = "telemetryd.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("load config failed", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	if level == "debug" {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting telemetryd", "version", Version)

	rec, err := ocr.New(cfg.OCR.Engine, cfg.OCR.Languages)
	if err != nil {
		return err
	}
	if _, ok := rec.(*ocr.Tesseract); ok {
		info := ocr.Probe()
		if !info.Available {
			logger.Warn("tesseract not available, recognition will fail", "error", info.Error)
		} else {
			logger.Info("recognition engine ready", "engine", info.Engine, "version", info.Version)
		}
	}

	ex := extract.NewExtractor(
		extract.PositionalOrder(cfg.Extraction.PositionalOrder),
		extract.Normalizer{Absolute: *cfg.Extraction.AbsoluteValues, Log: logger},
		logger,
	)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMaxImageSize(cfg.Performance.MaxImageSize),
		pipeline.WithMonitor(monitor.New(100)),
		pipeline.WithBreaker(resilience.NewBreaker("ocr",
			resilience.WithBreakerThreshold(cfg.Resilience.FailureThreshold),
			resilience.WithBreakerResetTimeout(cfg.Resilience.RecoveryTimeout))),
		pipeline.WithRetryPolicy(resilience.Policy{
			MaxAttempts: cfg.Resilience.MaxAttempts,
			BaseDelay:   cfg.Resilience.BaseDelay,
			Multiplier:  cfg.Resilience.BackoffMultiplier,
		}),
		pipeline.WithPool(resilience.NewPool(cfg.Performance.Workers, cfg.Performance.OCRTimeout)),
	}
	if *cfg.Performance.EnableCache {
		c, err := cache.New(
			cfg.Performance.CacheDir,
			cfg.Performance.CacheTTL,
			cfg.Performance.CacheMaxEntries,
			cfg.Performance.CacheMaxDiskMB*1024*1024,
			cache.WithLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("init cache: %w", err)
		}
		opts = append(opts, pipeline.WithCache(c))
	}

	proc := pipeline.New(rec, ex, *cfg.Mapping(logger), opts...)
	srv := server.New(cfg.Server.Addr, proc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err = srv.Start(ctx)
	logger.Info("stopped", "uptime", time.Since(start).Round(time.Second))
	return err
}
