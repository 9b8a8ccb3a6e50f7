package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/repository"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/types"
)

// ObservationHandler processes one decoded observation from a transport.
type ObservationHandler = func(ctx context.Context, obs types.Observation) error

// ObservationSource is a transport that delivers observations to a handler.
type ObservationSource interface {
	SetMessageHandler(handler ObservationHandler)
}

// Ingestor validates observations and stores them as measurements.
type Ingestor struct {
	writer repository.MeasurementWriter
	logger *slog.Logger
}

func NewIngestor(writer repository.MeasurementWriter, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{writer: writer, logger: logger}
}

// Register attaches the ingestor to every source.
func (i *Ingestor) Register(sources ...ObservationSource) {
	for _, src := range sources {
		src.SetMessageHandler(i.Handle)
	}
}

func (i *Ingestor) Handle(ctx context.Context, obs types.Observation) error {
	if err := obs.Validate(); err != nil {
		return err
	}

	i.logger.Debug("processing observation", "station", obs.Station, "date", obs.Date)

	if err := i.writer.InsertMeasurement(ctx, obs.Measurement()); err != nil {
		i.logger.Error("failed to store observation",
			"station", obs.Station,
			"date", obs.Date,
			"error", err,
		)
		return fmt.Errorf("store observation: %w", err)
	}

	i.logger.Debug("stored observation", "station", obs.Station, "date", obs.Date)
	return nil
}
