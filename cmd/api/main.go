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

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP until SIGINT or SIGTERM.
func main() {
	if err := envflag.Parse(); err != nil {
		slog.Error("failed to parse flags", "error", err)
		flag.PrintDefaults()
		os.Exit(1)
	}

	app, err := bootstrap.BuildAPI(*configFileFlag)
	if err != nil {
		slog.Error("bootstrap api failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("api shutdown close failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx); err != nil {
		slog.Error("sponsordesk api stopped with error", "error", err)
		os.Exit(1)
	}
}
