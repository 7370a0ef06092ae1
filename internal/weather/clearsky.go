package weather

import (
	"fmt"
	"time"

	"github.com/chrissnell/pvlifetime/pkg/airmass"
	"github.com/chrissnell/pvlifetime/pkg/solar"
)

// Site locates a PV system
type Site struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Altitude  float64 `json:"altitude" yaml:"altitude"` // meters
	Timezone  string  `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// Location resolves the site's IANA timezone, defaulting to UTC
func (s Site) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// ClearSkyOptions tunes the synthetic clear-sky year
type ClearSkyOptions struct {
	Step           time.Duration
	LinkeTurbidity float64
	TempAir        float64
	WindSpeed      float64
	Model          airmass.Model
}

// ClearSkyYear builds a synthetic weather series for one calendar year from
// the Ineichen-Perez clear-sky model. It stands in for a measured weather file
// when only the site is known.
func ClearSkyYear(site Site, year int, opts ClearSkyOptions) (*Series, error) {
	if opts.Step <= 0 {
		opts.Step = time.Hour
	}
	if opts.LinkeTurbidity == 0 {
		opts.LinkeTurbidity = solar.DefaultLinkeTurbidity
	}
	if opts.TempAir == 0 {
		opts.TempAir = 20
	}
	if opts.WindSpeed == 0 {
		opts.WindSpeed = 1
	}

	loc, err := site.Location()
	if err != nil {
		return nil, err
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(1, 0, 0)

	readings := make([]Reading, 0, int(end.Sub(start)/opts.Step))
	for ts := start; ts.Before(end); ts = ts.Add(opts.Step) {
		irr := solar.ClearSkyIneichenPerez(ts, site.Latitude, site.Longitude, site.Altitude, opts.LinkeTurbidity, opts.Model)
		readings = append(readings, Reading{
			Time:      ts,
			GHI:       irr.GHI,
			DNI:       irr.DNI,
			DHI:       irr.DHI,
			TempAir:   opts.TempAir,
			WindSpeed: opts.WindSpeed,
		})
	}

	return NewSeries(readings)
}
