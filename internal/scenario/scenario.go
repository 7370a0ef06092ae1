// Package scenario turns a loaded configuration into a lifetime simulation:
// it resolves the reference weather, the degradation profile and the
// evaluator, then runs the simulator in the configured mode.
package scenario

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chrissnell/pvlifetime/internal/degradation"
	"github.com/chrissnell/pvlifetime/internal/pvmodel"
	"github.com/chrissnell/pvlifetime/internal/weather"
	"github.com/chrissnell/pvlifetime/pkg/airmass"
	"github.com/chrissnell/pvlifetime/pkg/config"
	"go.uber.org/zap"
)

// DefaultWeatherYear labels synthetic clear-sky weather when no year is set
const DefaultWeatherYear = 1990

// Runner executes scenarios
type Runner struct {
	logger    *zap.SugaredLogger
	simulator *degradation.Simulator
}

// NewRunner creates a Runner. A nil logger discards diagnostics.
func NewRunner(logger *zap.SugaredLogger) *Runner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{
		logger:    logger,
		simulator: degradation.NewSimulator(logger),
	}
}

// Site converts the configured site
func Site(cfg *config.ConfigData) weather.Site {
	return weather.Site{
		Latitude:  cfg.Site.Latitude,
		Longitude: cfg.Site.Longitude,
		Altitude:  cfg.Site.Altitude,
		Timezone:  cfg.Site.Timezone,
	}
}

// Weather loads or synthesizes the reference-year weather for cfg
func (r *Runner) Weather(cfg *config.ConfigData, model airmass.Model) (*weather.Series, error) {
	switch cfg.Weather.Source {
	case config.WeatherSourceCSV:
		f, err := os.Open(cfg.Weather.Path)
		if err != nil {
			return nil, fmt.Errorf("could not open weather file: %w", err)
		}
		defer f.Close()

		w, err := weather.LoadCSV(f, cfg.Weather.CoerceYear)
		if err != nil {
			return nil, fmt.Errorf("could not load weather file %s: %w", cfg.Weather.Path, err)
		}
		r.logger.Infow("loaded weather file", "path", cfg.Weather.Path, "readings", w.Len(), "year", w.Year())
		return w, nil

	case config.WeatherSourceClearSky, "":
		year := cfg.Weather.Year
		if year == 0 {
			year = DefaultWeatherYear
		}
		w, err := weather.ClearSkyYear(Site(cfg), year, weather.ClearSkyOptions{
			Step:           time.Duration(cfg.Weather.StepMinutes) * time.Minute,
			LinkeTurbidity: cfg.Weather.LinkeTurbidity,
			TempAir:        cfg.Weather.TempAir,
			WindSpeed:      cfg.Weather.WindSpeed,
			Model:          model,
		})
		if err != nil {
			return nil, fmt.Errorf("could not build clear-sky weather: %w", err)
		}
		r.logger.Infow("built clear-sky weather", "year", year, "readings", w.Len())
		return w, nil
	}

	return nil, fmt.Errorf("unknown weather source %q", cfg.Weather.Source)
}

// Profile builds the parameter-mode degradation profile from d
func Profile(d config.DegradationData) (degradation.Profile, error) {
	switch {
	case len(d.Years) > 0:
		p := make(degradation.Profile, len(d.Years))
		for i, rec := range d.Years {
			p[i] = degradation.Record(rec)
		}
		return p, p.Validate()
	case len(d.Columns) > 0:
		return degradation.ProfileFromColumns(d.Columns)
	case d.UniformYears > 0:
		p := degradation.UniformProfile(d.UniformYears, degradation.Record(d.Uniform))
		return p, p.Validate()
	}
	return degradation.Profile{}, nil
}

// Run simulates cfg. In parameters mode every year's degraded configuration
// is evaluated against the reference weather; in aggregate mode the baseline
// output is evaluated once and scaled by the compounded rates.
func (r *Runner) Run(ctx context.Context, cfg *config.ConfigData) (*degradation.Result, error) {
	model := airmass.ParseModel(cfg.AirmassModel, r.logger)

	w, err := r.Weather(cfg, model)
	if err != nil {
		return nil, err
	}

	ev := pvmodel.New(Site(cfg), model)
	baseline := pvmodel.PinInverter(degradation.Parameters(cfg.System))

	mode := cfg.Degradation.Mode
	if mode == "" {
		mode = config.ModeParameters
	}

	r.logger.Infow("starting simulation",
		"scenario", cfg.Name,
		"mode", mode,
		"start_year", cfg.StartYear,
		"airmass_model", model.String())

	var result *degradation.Result
	switch mode {
	case config.ModeParameters:
		profile, err := Profile(cfg.Degradation)
		if err != nil {
			return nil, fmt.Errorf("invalid degradation profile: %w", err)
		}
		result, err = r.simulator.SimulateLifetime(ctx, baseline, w, profile, cfg.StartYear, ev)
		if err != nil {
			return nil, err
		}

	case config.ModeAggregate:
		out, err := ev.Run(ctx, w, baseline)
		if err != nil {
			return nil, fmt.Errorf("evaluator failed for baseline year: %w", err)
		}
		result, err = r.simulator.SimulateAggregate(out, cfg.Degradation.Rates, cfg.StartYear)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown degradation mode %q", mode)
	}

	r.logger.Infow("simulation complete",
		"scenario", cfg.Name,
		"years", len(result.Years),
		"samples", len(result.Output),
		"dropped_leap_day", result.DroppedLeapDay)

	return result, nil
}
