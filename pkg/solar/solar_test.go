package solar

import (
	"math"
	"testing"
	"time"

	"github.com/chrissnell/pvlifetime/pkg/airmass"
)

func TestSolarPosition(t *testing.T) {
	tests := []struct {
		name          string
		time          time.Time
		latitude      float64
		longitude     float64
		wantZenith    float64
		zenithEpsilon float64
		wantAzimuth   float64 // negative to skip
	}{
		{
			name:          "Equator at equinox, noon UTC",
			time:          time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC),
			latitude:      0,
			longitude:     0,
			wantZenith:    1.5,
			zenithEpsilon: 1.5,
			wantAzimuth:   -1,
		},
		{
			name:          "Denver summer solstice, solar noon",
			time:          time.Date(2024, time.June, 21, 19, 0, 0, 0, time.UTC),
			latitude:      39.74,
			longitude:     -104.99,
			wantZenith:    16.3,
			zenithEpsilon: 1.0,
			wantAzimuth:   180,
		},
		{
			name:          "Denver summer solstice, 1 AM local",
			time:          time.Date(2024, time.June, 21, 7, 0, 0, 0, time.UTC),
			latitude:      39.74,
			longitude:     -104.99,
			wantZenith:    116.8,
			zenithEpsilon: 2,
			wantAzimuth:   -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := SolarPosition(tt.time, tt.latitude, tt.longitude)
			if math.Abs(pos.ZenithDeg-tt.wantZenith) > tt.zenithEpsilon {
				t.Errorf("zenith = %.2f, want %.2f ± %.2f", pos.ZenithDeg, tt.wantZenith, tt.zenithEpsilon)
			}
			if tt.wantAzimuth >= 0 && math.Abs(pos.AzimuthDeg-tt.wantAzimuth) > 10 {
				t.Errorf("azimuth = %.2f, want ~%.2f", pos.AzimuthDeg, tt.wantAzimuth)
			}
			if pos.ApparentZenithDeg > pos.ZenithDeg {
				t.Errorf("refraction should lift the sun: apparent %.3f > true %.3f", pos.ApparentZenithDeg, pos.ZenithDeg)
			}
		})
	}
}

func TestClearSkyIneichenPerez(t *testing.T) {
	noon := time.Date(2024, time.June, 21, 19, 0, 0, 0, time.UTC)
	irr := ClearSkyIneichenPerez(noon, 39.74, -104.99, 1609, DefaultLinkeTurbidity, airmass.KastenYoung1989)

	if irr.GHI < 900 || irr.GHI > 1150 {
		t.Errorf("GHI = %.1f, expected 900-1150 W/m² at Denver solar noon", irr.GHI)
	}
	if irr.DNI <= 0 || irr.DHI <= 0 {
		t.Errorf("expected positive beam and diffuse, got DNI=%.1f DHI=%.1f", irr.DNI, irr.DHI)
	}

	pos := SolarPosition(noon, 39.74, -104.99)
	closure := irr.DHI + irr.DNI*math.Cos(degToRad(pos.ZenithDeg))
	if math.Abs(closure-irr.GHI) > 1e-6 {
		t.Errorf("components do not close: DHI + DNI·cos(z) = %.3f, GHI = %.3f", closure, irr.GHI)
	}

	night := ClearSkyIneichenPerez(time.Date(2024, time.June, 21, 7, 0, 0, 0, time.UTC), 39.74, -104.99, 1609, DefaultLinkeTurbidity, airmass.KastenYoung1989)
	if night != (Irradiance{}) {
		t.Errorf("expected zero irradiance at night, got %+v", night)
	}
}

func TestClearSkyTurbidity(t *testing.T) {
	noon := time.Date(2024, time.June, 21, 19, 0, 0, 0, time.UTC)
	clean := ClearSkyIneichenPerez(noon, 39.74, -104.99, 1609, 2, airmass.KastenYoung1989)
	hazy := ClearSkyIneichenPerez(noon, 39.74, -104.99, 1609, 5, airmass.KastenYoung1989)
	if hazy.GHI >= clean.GHI {
		t.Errorf("higher turbidity should reduce GHI: %.1f >= %.1f", hazy.GHI, clean.GHI)
	}
}
