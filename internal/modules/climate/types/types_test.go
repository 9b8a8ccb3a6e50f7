package types

import (
	"errors"
	"testing"
)

func ptr(f float64) *float64 { return &f }

func TestObservationValidate(t *testing.T) {
	tests := []struct {
		name    string
		obs     Observation
		wantErr bool
	}{
		{name: "valid", obs: Observation{Station: "USC00519397", Date: "2015-09-01", Prcp: ptr(0.02), Tobs: ptr(77)}},
		{name: "null prcp", obs: Observation{Station: "USC00519397", Date: "2015-09-01", Tobs: ptr(77)}},
		{name: "missing station", obs: Observation{Station: "  ", Date: "2015-09-01", Tobs: ptr(77)}, wantErr: true},
		{name: "unpadded date", obs: Observation{Station: "USC00519397", Date: "2015-9-1", Tobs: ptr(77)}, wantErr: true},
		{name: "missing tobs", obs: Observation{Station: "USC00519397", Date: "2015-09-01"}, wantErr: true},
		{name: "negative prcp", obs: Observation{Station: "USC00519397", Date: "2015-09-01", Prcp: ptr(-1), Tobs: ptr(77)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obs.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidObservation) {
					t.Fatalf("Validate() = %v, want ErrInvalidObservation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestObservationMeasurement(t *testing.T) {
	m := Observation{Station: " USC00519397 ", Date: "2015-09-01", Tobs: ptr(75)}.Measurement()
	if m.Station != "USC00519397" || m.Date != "2015-09-01" || m.Tobs != 75 || m.Prcp != nil {
		t.Errorf("Measurement() = %+v", m)
	}
}
