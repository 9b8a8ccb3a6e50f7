package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/types"
)

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/find-station-code.sql
var findStationCodeSQL string

//go:embed sql/get-precipitation.sql
var getPrecipitationSQL string

//go:embed sql/get-temperatures.sql
var getTemperaturesSQL string

//go:embed sql/get-date-bounds.sql
var getDateBoundsSQL string

//go:embed sql/get-temperature-stats-from.sql
var getTemperatureStatsFromSQL string

//go:embed sql/get-temperature-stats-between.sql
var getTemperatureStatsBetweenSQL string

//go:embed sql/upsert-station.sql
var upsertStationSQL string

//go:embed sql/upsert-station.mysql.sql
var upsertStationMySQL string

//go:embed sql/insert-measurement.sql
var insertMeasurementSQL string

//go:embed sql/check-stations.sql
var checkStationsSQL string

//go:embed sql/check-measurements.sql
var checkMeasurementsSQL string

var (
	ErrStationNotFound = errors.New("no station matches pattern")
	ErrNoObservations  = errors.New("no observations in range")
)

// ClimateRepository is the read side used by the query service.
type ClimateRepository interface {
	GetStations(ctx context.Context) ([]types.Station, error)
	FindStationCode(ctx context.Context, pattern string) (string, error)
	GetPrecipitation(ctx context.Context, station, from, to string) ([]types.DailyValue, error)
	GetTemperatures(ctx context.Context, station, from, to string) ([]types.DailyValue, error)
	GetDateBounds(ctx context.Context, station string) (types.DateBounds, error)
	GetTemperatureStats(ctx context.Context, station, from, to string) (types.TemperatureStats, error)
	CheckSchema(ctx context.Context) error
}

// MeasurementWriter is the write side used by the loader and ingestion.
type MeasurementWriter interface {
	UpsertStation(ctx context.Context, s types.Station) error
	InsertMeasurement(ctx context.Context, m types.Measurement) error
	Load(ctx context.Context, stations []types.Station, measurements []types.Measurement) error
}

type Repository interface {
	ClimateRepository
	MeasurementWriter
}

type queries struct {
	getStations                string
	findStationCode            string
	getPrecipitation           string
	getTemperatures            string
	getDateBounds              string
	getTemperatureStatsFrom    string
	getTemperatureStatsBetween string
	upsertStation              string
	insertMeasurement          string
}

type repositoryImpl struct {
	db *sqlx.DB
	q  queries
}

// NewRepository binds the embedded statements to the placeholder style of
// db's driver.
func NewRepository(db *sqlx.DB) Repository {
	upsert := upsertStationSQL
	if db.DriverName() == "mysql" {
		upsert = upsertStationMySQL
	}
	return &repositoryImpl{
		db: db,
		q: queries{
			getStations:                db.Rebind(getStationsSQL),
			findStationCode:            db.Rebind(findStationCodeSQL),
			getPrecipitation:           db.Rebind(getPrecipitationSQL),
			getTemperatures:            db.Rebind(getTemperaturesSQL),
			getDateBounds:              db.Rebind(getDateBoundsSQL),
			getTemperatureStatsFrom:    db.Rebind(getTemperatureStatsFromSQL),
			getTemperatureStatsBetween: db.Rebind(getTemperatureStatsBetweenSQL),
			upsertStation:              db.Rebind(upsert),
			insertMeasurement:          db.Rebind(insertMeasurementSQL),
		},
	}
}

func (r *repositoryImpl) GetStations(ctx context.Context) ([]types.Station, error) {
	var out []types.Station
	if err := r.db.SelectContext(ctx, &out, r.q.getStations); err != nil {
		return nil, fmt.Errorf("get stations: %w", err)
	}
	return out, nil
}

// FindStationCode returns the first station whose name contains pattern,
// ignoring case.
func (r *repositoryImpl) FindStationCode(ctx context.Context, pattern string) (string, error) {
	var code string
	err := r.db.GetContext(ctx, &code, r.q.findStationCode, "%"+pattern+"%")
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", ErrStationNotFound, pattern)
	}
	if err != nil {
		return "", fmt.Errorf("find station %q: %w", pattern, err)
	}
	return code, nil
}

func (r *repositoryImpl) GetPrecipitation(ctx context.Context, station, from, to string) ([]types.DailyValue, error) {
	return r.dailyValues(ctx, "precipitation", r.q.getPrecipitation, station, from, to)
}

func (r *repositoryImpl) GetTemperatures(ctx context.Context, station, from, to string) ([]types.DailyValue, error) {
	return r.dailyValues(ctx, "temperatures", r.q.getTemperatures, station, from, to)
}

func (r *repositoryImpl) dailyValues(ctx context.Context, what, query, station, from, to string) ([]types.DailyValue, error) {
	rows, err := r.db.QueryxContext(ctx, query, station, from, to)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", what, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close rows", "query", what, "error", err)
		}
	}()

	out := []types.DailyValue{}
	for rows.Next() {
		var v types.DailyValue
		if err := rows.StructScan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type dateBoundsRow struct {
	Oldest sql.NullString `db:"oldest"`
	Latest sql.NullString `db:"latest"`
}

func (r *repositoryImpl) GetDateBounds(ctx context.Context, station string) (types.DateBounds, error) {
	var row dateBoundsRow
	if err := r.db.GetContext(ctx, &row, r.q.getDateBounds, station); err != nil {
		return types.DateBounds{}, fmt.Errorf("get date bounds: %w", err)
	}
	if !row.Oldest.Valid || !row.Latest.Valid {
		return types.DateBounds{}, fmt.Errorf("%w: station %q has no measurements", ErrNoObservations, station)
	}
	return types.DateBounds{Oldest: row.Oldest.String, Latest: row.Latest.String}, nil
}

type statsRow struct {
	Min   sql.NullFloat64 `db:"tmin"`
	Max   sql.NullFloat64 `db:"tmax"`
	Avg   sql.NullFloat64 `db:"tavg"`
	Count int             `db:"n"`
}

// GetTemperatureStats aggregates tobs for station on dates >= from, and
// <= to unless to is empty.
func (r *repositoryImpl) GetTemperatureStats(ctx context.Context, station, from, to string) (types.TemperatureStats, error) {
	var (
		row statsRow
		err error
	)
	if to == "" {
		err = r.db.GetContext(ctx, &row, r.q.getTemperatureStatsFrom, station, from)
	} else {
		err = r.db.GetContext(ctx, &row, r.q.getTemperatureStatsBetween, station, from, to)
	}
	if err != nil {
		return types.TemperatureStats{}, fmt.Errorf("get temperature stats: %w", err)
	}
	if row.Count == 0 || !row.Avg.Valid {
		return types.TemperatureStats{}, fmt.Errorf("%w: station %q from %q to %q", ErrNoObservations, station, from, to)
	}
	return types.TemperatureStats{
		Min:   row.Min.Float64,
		Max:   row.Max.Float64,
		Avg:   row.Avg.Float64,
		Count: row.Count,
	}, nil
}

// CheckSchema fails when either table or a column the queries use is missing.
func (r *repositoryImpl) CheckSchema(ctx context.Context) error {
	for _, q := range []string{checkStationsSQL, checkMeasurementsSQL} {
		rows, err := r.db.QueryContext(ctx, q)
		if err != nil {
			return fmt.Errorf("schema check: %w", err)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("schema check: %w", err)
		}
	}
	return nil
}

func (r *repositoryImpl) UpsertStation(ctx context.Context, s types.Station) error {
	if _, err := r.db.ExecContext(ctx, r.q.upsertStation, s.Code, s.Name, s.Latitude, s.Longitude, s.Elevation); err != nil {
		return fmt.Errorf("upsert station %q: %w", s.Code, err)
	}
	return nil
}

func (r *repositoryImpl) InsertMeasurement(ctx context.Context, m types.Measurement) error {
	if _, err := r.db.ExecContext(ctx, r.q.insertMeasurement, m.Station, m.Date, m.Prcp, m.Tobs); err != nil {
		return fmt.Errorf("insert measurement %s/%s: %w", m.Station, m.Date, err)
	}
	return nil
}

// Load writes stations then measurements in a single transaction.
func (r *repositoryImpl) Load(ctx context.Context, stations []types.Station, measurements []types.Measurement) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("rollback load", "error", rbErr)
			}
		}
	}()

	upsert, err := tx.PreparexContext(ctx, r.q.upsertStation)
	if err != nil {
		return fmt.Errorf("prepare upsert station: %w", err)
	}
	defer upsert.Close()
	for _, s := range stations {
		if _, err = upsert.ExecContext(ctx, s.Code, s.Name, s.Latitude, s.Longitude, s.Elevation); err != nil {
			return fmt.Errorf("upsert station %q: %w", s.Code, err)
		}
	}

	insert, err := tx.PreparexContext(ctx, r.q.insertMeasurement)
	if err != nil {
		return fmt.Errorf("prepare insert measurement: %w", err)
	}
	defer insert.Close()
	for _, m := range measurements {
		if _, err = insert.ExecContext(ctx, m.Station, m.Date, m.Prcp, m.Tobs); err != nil {
			return fmt.Errorf("insert measurement %s/%s: %w", m.Station, m.Date, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}
	return nil
}
