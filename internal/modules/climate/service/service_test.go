package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/repository"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/types"
)

type statsCall struct {
	station, from, to string
}

type mockRepo struct {
	code       string
	findErr    error
	bounds     types.DateBounds
	boundsErr  error
	stats      types.TemperatureStats
	statsErr   error
	daily      []types.DailyValue
	stations   []types.Station
	statsCalls []statsCall
	window     [2]string
}

func (m *mockRepo) GetStations(context.Context) ([]types.Station, error) { return m.stations, nil }

func (m *mockRepo) FindStationCode(_ context.Context, pattern string) (string, error) {
	return m.code, m.findErr
}

func (m *mockRepo) GetPrecipitation(_ context.Context, _, from, to string) ([]types.DailyValue, error) {
	m.window = [2]string{from, to}
	return m.daily, nil
}

func (m *mockRepo) GetTemperatures(_ context.Context, _, from, to string) ([]types.DailyValue, error) {
	m.window = [2]string{from, to}
	return m.daily, nil
}

func (m *mockRepo) GetDateBounds(context.Context, string) (types.DateBounds, error) {
	return m.bounds, m.boundsErr
}

func (m *mockRepo) GetTemperatureStats(_ context.Context, station, from, to string) (types.TemperatureStats, error) {
	m.statsCalls = append(m.statsCalls, statsCall{station, from, to})
	return m.stats, m.statsErr
}

func (m *mockRepo) CheckSchema(context.Context) error { return nil }

func newTestService(t *testing.T, repo *mockRepo) *Service {
	t.Helper()
	svc, err := NewService(repo, Settings{StationPattern: "HONOLULU", WindowEnd: "2015-09-01", WindowDays: 365})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func healthyRepo() *mockRepo {
	return &mockRepo{
		code:   "USC00511918",
		bounds: types.DateBounds{Oldest: "2010-01-01", Latest: "2017-08-23"},
		stats:  types.TemperatureStats{Min: 56, Max: 87, Avg: 74.14387974230493, Count: 100},
	}
}

func TestNewService(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		wantErr  bool
	}{
		{name: "defaults", settings: Settings{StationPattern: "HONOLULU", WindowEnd: "2015-09-01", WindowDays: 365}},
		{name: "bad end", settings: Settings{StationPattern: "HONOLULU", WindowEnd: "09/01/2015", WindowDays: 365}, wantErr: true},
		{name: "zero days", settings: Settings{StationPattern: "HONOLULU", WindowEnd: "2015-09-01"}, wantErr: true},
		{name: "empty pattern", settings: Settings{WindowEnd: "2015-09-01", WindowDays: 365}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(&mockRepo{}, tt.settings)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewService() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_Window(t *testing.T) {
	repo := healthyRepo()
	svc := newTestService(t, repo)

	start, end := svc.Window()
	if start != "2014-09-01" || end != "2015-09-01" {
		t.Fatalf("Window() = %s..%s, want 2014-09-01..2015-09-01", start, end)
	}

	if _, err := svc.Precipitation(context.Background()); err != nil {
		t.Fatalf("Precipitation: %v", err)
	}
	if repo.window != [2]string{"2014-09-01", "2015-09-01"} {
		t.Errorf("precipitation window = %v", repo.window)
	}

	repo.window = [2]string{}
	if _, err := svc.Temperatures(context.Background()); err != nil {
		t.Fatalf("Temperatures: %v", err)
	}
	if repo.window != [2]string{"2014-09-01", "2015-09-01"} {
		t.Errorf("temperature window = %v", repo.window)
	}
}

func TestService_ReportsPropagateMissingStation(t *testing.T) {
	repo := &mockRepo{findErr: repository.ErrStationNotFound}
	svc := newTestService(t, repo)

	if _, err := svc.Precipitation(context.Background()); !errors.Is(err, repository.ErrStationNotFound) {
		t.Errorf("Precipitation error = %v, want ErrStationNotFound", err)
	}
	if _, err := svc.Temperatures(context.Background()); !errors.Is(err, repository.ErrStationNotFound) {
		t.Errorf("Temperatures error = %v, want ErrStationNotFound", err)
	}
	if _, err := svc.StatsFrom(context.Background(), "2015-01-01"); !errors.Is(err, repository.ErrStationNotFound) {
		t.Errorf("StatsFrom error = %v, want ErrStationNotFound", err)
	}
}

func TestService_StatsFrom(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		wantErr error
	}{
		{name: "valid", start: "2015-01-01"},
		{name: "equal to oldest", start: "2010-01-01"},
		{name: "not a date", start: "not-a-date", wantErr: ErrInvalidDate},
		{name: "unpadded month and day", start: "2015-9-1"},
		{name: "unpadded day", start: "2015-09-1"},
		{name: "two digit year", start: "15-09-01", wantErr: ErrInvalidDate},
		{name: "day out of range unpadded", start: "2015-2-30", wantErr: ErrInvalidDate},
		{name: "impossible day", start: "2015-02-30", wantErr: ErrInvalidDate},
		{name: "before records", start: "1900-01-01", wantErr: ErrStartBeforeRecords},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := healthyRepo()
			svc := newTestService(t, repo)

			got, err := svc.StatsFrom(context.Background(), tt.start)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("StatsFrom(%q) error = %v, want %v", tt.start, err, tt.wantErr)
				}
				if len(repo.statsCalls) != 0 {
					t.Errorf("stats queried despite error: %v", repo.statsCalls)
				}
				return
			}
			if err != nil {
				t.Fatalf("StatsFrom(%q) error = %v", tt.start, err)
			}
			want := types.TemperatureSummary{TAVG: 74.14, TMAX: 87, TMIN: 56}
			if got != want {
				t.Errorf("StatsFrom(%q) = %+v, want %+v", tt.start, got, want)
			}
			if len(repo.statsCalls) != 1 || repo.statsCalls[0] != (statsCall{"USC00511918", tt.start, ""}) {
				t.Errorf("stats calls = %v", repo.statsCalls)
			}
		})
	}
}

func TestService_StatsBetween(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantErr    error
	}{
		{name: "valid", start: "2015-09-01", end: "2015-09-10"},
		{name: "unpadded dates passed through raw", start: "2015-9-1", end: "2015-9-10"},
		{name: "bad start wins over bad end", start: "nope", end: "nope", wantErr: ErrInvalidStartDate},
		{name: "bad end", start: "2015-09-01", end: "2015/09/10", wantErr: ErrInvalidEndDate},
		{name: "start before records", start: "2009-12-31", end: "2015-09-10", wantErr: ErrStartBeforeRecords},
		{name: "end after records", start: "2015-09-01", end: "2017-08-24", wantErr: ErrEndAfterRecords},
		{name: "start check precedes end check", start: "2009-12-31", end: "2017-08-24", wantErr: ErrStartBeforeRecords},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := healthyRepo()
			svc := newTestService(t, repo)

			got, err := svc.StatsBetween(context.Background(), tt.start, tt.end)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("StatsBetween(%q, %q) error = %v, want %v", tt.start, tt.end, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("StatsBetween error = %v", err)
			}
			if got.TMIN > got.TAVG || got.TAVG > got.TMAX {
				t.Errorf("expected TMIN <= TAVG <= TMAX, got %+v", got)
			}
			if len(repo.statsCalls) != 1 || repo.statsCalls[0] != (statsCall{"USC00511918", tt.start, tt.end}) {
				t.Errorf("stats calls = %v", repo.statsCalls)
			}
		})
	}
}

func TestService_EmptyAggregatePropagates(t *testing.T) {
	repo := healthyRepo()
	repo.statsErr = repository.ErrNoObservations
	svc := newTestService(t, repo)

	if _, err := svc.StatsBetween(context.Background(), "2015-09-10", "2015-09-01"); !errors.Is(err, repository.ErrNoObservations) {
		t.Fatalf("StatsBetween error = %v, want ErrNoObservations", err)
	}
}

func TestRoundTo2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{74.14387974230493, 74.14},
		{70.125, 70.12},
		{73.125, 73.12},
		{73.375, 73.38},
		{2.675, 2.67},
		{0.125, 0.12},
		{70.0, 70},
		{-1.005, -1.0},
		{71.666666, 71.67},
	}
	for _, tt := range tests {
		got := roundTo2(tt.in)
		if got != tt.want {
			t.Errorf("roundTo2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestService_StatsFromRoundsTiesToEven(t *testing.T) {
	repo := healthyRepo()
	// 8 whole-degree readings summing to 585.
	repo.stats = types.TemperatureStats{Min: 70, Max: 77, Avg: 73.125, Count: 8}
	svc := newTestService(t, repo)

	got, err := svc.StatsFrom(context.Background(), "2015-01-01")
	if err != nil {
		t.Fatalf("StatsFrom error = %v", err)
	}
	if got.TAVG != 73.12 {
		t.Errorf("TAVG = %v, want 73.12", got.TAVG)
	}
}
