package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/config"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/db"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/envfile"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/logging"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/migrate"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/loader"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/repository"
)

const usage = `usage: %s <command>
  migrate                               apply pending schema migrations
  load <stations.csv> <measurements.csv> import CSV exports in one transaction
`

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}

	if err := envfile.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "env file: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(cfg, version, "climatectl"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string) error {
	switch args[0] {
	case "migrate", "load":
	default:
		return fmt.Errorf("unknown command (want migrate or load)")
	}
	if args[0] == "load" && len(args) != 3 {
		return fmt.Errorf("want: load <stations.csv> <measurements.csv>")
	}

	conn, err := db.Open(cfg.DB, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	applied, err := migrate.Run(ctx, conn)
	if err != nil {
		return err
	}
	if args[0] == "migrate" {
		fmt.Printf("migrations applied: %d\n", len(applied))
		return nil
	}

	sum, err := loader.LoadFiles(ctx, repository.NewRepository(conn), args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Printf("loaded %d stations, %d measurements\n", sum.Stations, sum.Measurements)
	return nil
}
