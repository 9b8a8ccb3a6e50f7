package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and path format of observation dates.
const DateLayout = time.DateOnly

type Station struct {
	Code      string   `db:"station" json:"station"`
	Name      string   `db:"name" json:"name"`
	Latitude  *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `db:"longitude" json:"longitude,omitempty"`
	Elevation *float64 `db:"elevation" json:"elevation,omitempty"`
}

type Measurement struct {
	Station string   `db:"station"`
	Date    string   `db:"date"`
	Prcp    *float64 `db:"prcp"`
	Tobs    float64  `db:"tobs"`
}

// DailyValue is one (date, value) row of a station report. Value is nil when
// the stored column is NULL.
type DailyValue struct {
	Date  string   `db:"date"`
	Value *float64 `db:"value"`
}

// DateBounds holds the earliest and latest stored date strings for a station.
type DateBounds struct {
	Oldest string
	Latest string
}

// TemperatureStats are the raw aggregates over a set of observations.
type TemperatureStats struct {
	Min   float64
	Max   float64
	Avg   float64
	Count int
}

// TemperatureSummary is the response body of the stats routes. Field order
// matches the sorted key order clients already depend on.
type TemperatureSummary struct {
	TAVG float64 `json:"TAVG"`
	TMAX float64 `json:"TMAX"`
	TMIN float64 `json:"TMIN"`
}

// Observation is a single measurement delivered by an ingestion transport.
type Observation struct {
	Station string   `json:"station"`
	Date    string   `json:"date"`
	Prcp    *float64 `json:"prcp"`
	Tobs    *float64 `json:"tobs"`
}

var ErrInvalidObservation = errors.New("invalid observation")

// Validate checks the fields a measurement row cannot be stored without.
func (o Observation) Validate() error {
	if strings.TrimSpace(o.Station) == "" {
		return fmt.Errorf("%w: station is required", ErrInvalidObservation)
	}
	if _, err := time.Parse(DateLayout, o.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidObservation, o.Date)
	}
	if o.Tobs == nil {
		return fmt.Errorf("%w: tobs is required", ErrInvalidObservation)
	}
	if o.Prcp != nil && *o.Prcp < 0 {
		return fmt.Errorf("%w: prcp must not be negative", ErrInvalidObservation)
	}
	return nil
}

// Measurement converts a validated observation into a storable row.
func (o Observation) Measurement() Measurement {
	m := Measurement{Station: strings.TrimSpace(o.Station), Date: o.Date, Prcp: o.Prcp}
	if o.Tobs != nil {
		m.Tobs = *o.Tobs
	}
	return m
}
