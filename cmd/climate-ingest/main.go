package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/app"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/config"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/envfile"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/logging"
)

const appName = "climate-ingest"

var version = "dev"

func main() {
	if err := envfile.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(cfg, version, appName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunIngest(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("ingest failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}
