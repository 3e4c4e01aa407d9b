package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bakkerme/reviewbot/internal/config"
	"github.com/bakkerme/reviewbot/internal/core"
	"github.com/bakkerme/reviewbot/internal/observability/otelx"
	"github.com/bakkerme/reviewbot/internal/runner/factory"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML document (overrides REVIEWBOT_CONFIG)")
	dryRun := flag.Bool("dry-run", false, "log messages instead of sending them and keep state untouched")
	flag.Parse()

	if *configPath != "" {
		os.Setenv("REVIEWBOT_CONFIG", *configPath)
	}
	if *dryRun {
		os.Setenv("DRY_RUN", "true")
	}

	env, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	logger := core.NewLogger(os.Stdout, env.Log.Format, env.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otelx.Init(ctx, logger, env.OTel)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	if shutdownTracing != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Warn("tracing shutdown failed", "error", err)
			}
		}()
	}

	f := factory.NewFromEnvConfig(logger, env)
	r, err := f.NewRunner()
	if err != nil {
		log.Fatalf("failed to build runner: %v", err)
	}
	defer func() {
		if err := f.Store.Close(); err != nil {
			logger.Warn("closing seen store failed", "error", err)
		}
	}()

	if env.Schedule == "" || env.RunOnce {
		if _, err := r.RunOnce(ctx); err != nil {
			logger.Error("run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	trig := f.NewCronTrigger()
	defer trig.Stop()
	logger.Info("waiting for schedule", "schedule", env.Schedule, "timezone", env.Timezone)
	if err := r.Start(ctx, trig); err != nil {
		logger.Error("scheduler stopped", "error", err)
		os.Exit(1)
	}
}
