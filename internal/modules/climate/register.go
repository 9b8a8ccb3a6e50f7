package climate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/config"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/controller"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/repository"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/service"
)

// RegisterFeature verifies the schema and mounts the read-only climate routes.
func RegisterFeature(ctx context.Context, mux *http.ServeMux, db *sqlx.DB, cfg config.ClimateConfig) error {
	climateRepository := repository.NewRepository(db)
	if err := climateRepository.CheckSchema(ctx); err != nil {
		return err
	}

	climateService, err := service.NewService(climateRepository, service.Settings{
		StationPattern: cfg.StationPattern,
		WindowEnd:      cfg.WindowEnd,
		WindowDays:     cfg.WindowDays,
	})
	if err != nil {
		return err
	}

	controller.NewClimateController(climateService).RegisterRoutes(mux)
	return nil
}

// RegisterIngestion stores observations from every source as measurements.
func RegisterIngestion(db *sqlx.DB, logger *slog.Logger, sources ...service.ObservationSource) {
	service.NewIngestor(repository.NewRepository(db), logger).Register(sources...)
}
