package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/repository"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/types"
)

// Request-level outcomes the HTTP layer reports as plain text.
var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidStartDate   = errors.New("invalid start date")
	ErrInvalidEndDate     = errors.New("invalid end date")
	ErrStartBeforeRecords = errors.New("start date before oldest record")
	ErrEndAfterRecords    = errors.New("end date after latest record")
)

type Settings struct {
	StationPattern string
	WindowEnd      string
	WindowDays     int
}

type Service struct {
	repository     repository.ClimateRepository
	stationPattern string
	windowStart    string
	windowEnd      string
}

func NewService(repo repository.ClimateRepository, settings Settings) (*Service, error) {
	end, err := time.Parse(types.DateLayout, settings.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("window end %q: %w", settings.WindowEnd, err)
	}
	if settings.WindowDays <= 0 {
		return nil, fmt.Errorf("window days must be positive, got %d", settings.WindowDays)
	}
	if settings.StationPattern == "" {
		return nil, errors.New("station pattern is empty")
	}
	return &Service{
		repository:     repo,
		stationPattern: settings.StationPattern,
		windowStart:    end.AddDate(0, 0, -settings.WindowDays).Format(types.DateLayout),
		windowEnd:      settings.WindowEnd,
	}, nil
}

// Window returns the inclusive date range of the precipitation and
// temperature reports.
func (s *Service) Window() (start, end string) {
	return s.windowStart, s.windowEnd
}

func (s *Service) Stations(ctx context.Context) ([]types.Station, error) {
	return s.repository.GetStations(ctx)
}

func (s *Service) Precipitation(ctx context.Context) ([]types.DailyValue, error) {
	code, err := s.repository.FindStationCode(ctx, s.stationPattern)
	if err != nil {
		return nil, err
	}
	return s.repository.GetPrecipitation(ctx, code, s.windowStart, s.windowEnd)
}

func (s *Service) Temperatures(ctx context.Context) ([]types.DailyValue, error) {
	code, err := s.repository.FindStationCode(ctx, s.stationPattern)
	if err != nil {
		return nil, err
	}
	return s.repository.GetTemperatures(ctx, code, s.windowStart, s.windowEnd)
}

// StatsFrom summarises temperatures on or after start. start is only parsed
// for validation; the raw string is compared and queried.
func (s *Service) StatsFrom(ctx context.Context, start string) (types.TemperatureSummary, error) {
	if !validDate(start) {
		return types.TemperatureSummary{}, ErrInvalidDate
	}

	code, bounds, err := s.stationBounds(ctx)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	if start < bounds.Oldest {
		return types.TemperatureSummary{}, ErrStartBeforeRecords
	}

	stats, err := s.repository.GetTemperatureStats(ctx, code, start, "")
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	return summarize(stats), nil
}

// StatsBetween summarises temperatures in the inclusive range [start, end].
func (s *Service) StatsBetween(ctx context.Context, start, end string) (types.TemperatureSummary, error) {
	if !validDate(start) {
		return types.TemperatureSummary{}, ErrInvalidStartDate
	}
	if !validDate(end) {
		return types.TemperatureSummary{}, ErrInvalidEndDate
	}

	code, bounds, err := s.stationBounds(ctx)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	if start < bounds.Oldest {
		return types.TemperatureSummary{}, ErrStartBeforeRecords
	}
	if end > bounds.Latest {
		return types.TemperatureSummary{}, ErrEndAfterRecords
	}

	stats, err := s.repository.GetTemperatureStats(ctx, code, start, end)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	return summarize(stats), nil
}

func (s *Service) stationBounds(ctx context.Context) (string, types.DateBounds, error) {
	code, err := s.repository.FindStationCode(ctx, s.stationPattern)
	if err != nil {
		return "", types.DateBounds{}, err
	}
	bounds, err := s.repository.GetDateBounds(ctx, code)
	if err != nil {
		return "", types.DateBounds{}, err
	}
	return code, bounds, nil
}

// requestDateLayout takes zero-padded and unpadded month and day, so
// "2015-9-1" is as valid as "2015-09-01". The raw string is what gets compared.
const requestDateLayout = "2006-1-2"

func validDate(s string) bool {
	_, err := time.Parse(requestDateLayout, s)
	return err == nil
}

func summarize(stats types.TemperatureStats) types.TemperatureSummary {
	return types.TemperatureSummary{
		TAVG: roundTo2(stats.Avg),
		TMAX: stats.Max,
		TMIN: stats.Min,
	}
}

// roundTo2 rounds the exact binary value to 2 decimals, ties to even.
func roundTo2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
