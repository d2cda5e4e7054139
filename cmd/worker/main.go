package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sponsordesk/internal/app/bootstrap"

	"github.com/kouhin/envflag"
)

var configFileFlag = flag.String("config-file", "", "optional YAML config file, (env var: CONFIG_FILE)")

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Relay the outbox and dispatch notifications until stopped.
func main() {
	if err := envflag.Parse(); err != nil {
		slog.Error("failed to parse flags", "error", err)
		flag.PrintDefaults()
		os.Exit(1)
	}

	slog.Info("sponsordesk worker starting")
	app, err := bootstrap.BuildWorker(*configFileFlag)
	if err != nil {
		slog.Error("bootstrap worker failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("worker shutdown close failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx); err != nil {
		slog.Error("sponsordesk worker stopped with error", "error", err)
		os.Exit(1)
	}
}
