package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/config"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/db"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/httpapi"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/migrate"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate"
)

const shutdownTimeout = 10 * time.Second

// Run serves the climate API until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	logConfig(cfg)

	dbConn, err := db.Open(cfg.DB, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if cfg.DB.Migrate {
		if _, err := migrate.Run(ctx, dbConn); err != nil {
			return err
		}
	}

	var ok int
	if err := dbConn.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	slog.Info("database connection successful")

	mux := httpapi.NewMux(dbConn)
	if err := climate.RegisterFeature(ctx, mux, dbConn, cfg.Climate); err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

func logConfig(cfg config.Config) {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.DB.Driver,
		"sqlitePath", cfg.DB.Path,
		"dbMaxOpenConns", cfg.DB.MaxOpenConns,
		"dbMaxIdleConns", cfg.DB.MaxIdleConns,
		"dbConnMaxLifetime", cfg.DB.ConnMaxLifetime,
		"dbMigrate", cfg.DB.Migrate,
		"stationPattern", cfg.Climate.StationPattern,
		"windowEnd", cfg.Climate.WindowEnd,
		"windowDays", cfg.Climate.WindowDays,
	)
}
