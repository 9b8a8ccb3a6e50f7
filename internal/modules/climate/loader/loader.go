// Package loader imports the station and measurement CSV exports into the
// store.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/repository"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/types"
)

var (
	stationColumns     = []string{"station", "name", "latitude", "longitude", "elevation"}
	measurementColumns = []string{"station", "date", "prcp", "tobs"}
)

type Summary struct {
	Stations     int
	Measurements int
}

// LoadFiles reads both files fully before writing anything, then stores
// them in one transaction.
func LoadFiles(ctx context.Context, w repository.MeasurementWriter, stationsPath, measurementsPath string) (Summary, error) {
	stations, err := readFile(stationsPath, ReadStations)
	if err != nil {
		return Summary{}, err
	}
	measurements, err := readFile(measurementsPath, ReadMeasurements)
	if err != nil {
		return Summary{}, err
	}

	if err := w.Load(ctx, stations, measurements); err != nil {
		return Summary{}, err
	}
	slog.Info("climate data loaded", "stations", len(stations), "measurements", len(measurements))
	return Summary{Stations: len(stations), Measurements: len(measurements)}, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("close csv", "path", path, "error", err)
		}
	}()

	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func ReadStations(r io.Reader) ([]types.Station, error) {
	var out []types.Station
	err := readRows(r, stationColumns, func(line int, get func(string) string) error {
		s := types.Station{Code: get("station"), Name: get("name")}
		if s.Code == "" || s.Name == "" {
			return fmt.Errorf("line %d: station and name are required", line)
		}
		var err error
		if s.Latitude, err = optionalFloat(get("latitude")); err != nil {
			return fmt.Errorf("line %d: latitude: %w", line, err)
		}
		if s.Longitude, err = optionalFloat(get("longitude")); err != nil {
			return fmt.Errorf("line %d: longitude: %w", line, err)
		}
		if s.Elevation, err = optionalFloat(get("elevation")); err != nil {
			return fmt.Errorf("line %d: elevation: %w", line, err)
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func ReadMeasurements(r io.Reader) ([]types.Measurement, error) {
	var out []types.Measurement
	err := readRows(r, measurementColumns, func(line int, get func(string) string) error {
		prcp, err := optionalFloat(get("prcp"))
		if err != nil {
			return fmt.Errorf("line %d: prcp: %w", line, err)
		}
		tobs, err := optionalFloat(get("tobs"))
		if err != nil {
			return fmt.Errorf("line %d: tobs: %w", line, err)
		}
		obs := types.Observation{Station: get("station"), Date: get("date"), Prcp: prcp, Tobs: tobs}
		if err := obs.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, obs.Measurement())
		return nil
	})
	return out, err
}

// readRows maps columns by header name so extra columns (such as an id) and
// any column order are accepted.
func readRows(r io.Reader, required []string, row func(line int, get func(string) string) error) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return errors.New("empty file")
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("missing column %q", col)
		}
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line, _ := cr.FieldPos(0)
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if err := row(line, get); err != nil {
			return err
		}
	}
}

func optionalFloat(s string) (*float64, error) {
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
