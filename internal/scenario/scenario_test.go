package scenario

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/pvlifetime/internal/degradation"
	"github.com/chrissnell/pvlifetime/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func baseConfig() *config.ConfigData {
	return &config.ConfigData{
		Name:      "test",
		StartYear: 2025,
		Site:      config.SiteData{Latitude: 39.74, Longitude: -104.99, Altitude: 1609},
		System:    map[string]float64{"pdc0": 1, "gamma_pdc": -0.004, "b": 0.05, "inverter_pdc0": 1},
		Degradation: config.DegradationData{
			Mode: config.ModeParameters,
			Columns: map[string][]float64{
				"pdc0":      {0.0, 0.02, 0.005},
				"gamma_pdc": {0.0, 0.02, 0.005},
				"b":         {0.0, 0.02, 0.005},
			},
		},
		Weather: config.WeatherData{Source: config.WeatherSourceClearSky, Year: 2023},
	}
}

func TestRunParametersMode(t *testing.T) {
	r := NewRunner(nil)
	result, err := r.Run(context.Background(), baseConfig())
	require.NoError(t, err)

	require.Len(t, result.Years, 3)
	assert.Equal(t, 3*8760, len(result.Output))
	assert.Equal(t, 0, result.DroppedLeapDay)

	yearly := result.Yearly()
	require.Len(t, yearly, 3)
	assert.Equal(t, []int{2025, 2026, 2027}, []int{yearly[0].Year, yearly[1].Year, yearly[2].Year})
	assert.Greater(t, yearly[0].Total, yearly[1].Total)
	assert.Greater(t, yearly[1].Total, yearly[2].Total)
	assert.InDelta(t, 0.98*0.995, result.Years[2].Parameters["pdc0"], 1e-12)

	// the configured system is left untouched
	assert.Equal(t, 1.0, baseConfig().System["pdc0"])
}

func TestRunInverterRatingFollowsBaseline(t *testing.T) {
	cfg := baseConfig()
	delete(cfg.System, "inverter_pdc0")
	cfg.Degradation = config.DegradationData{
		Mode:    config.ModeParameters,
		Columns: map[string][]float64{"pdc0": {0, 0.5}},
	}

	result, err := NewRunner(nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, result.Years, 2)

	assert.Equal(t, 0.5, result.Years[1].Parameters["pdc0"])
	assert.Equal(t, 1.0, result.Years[0].Parameters["inverter_pdc0"])
	assert.Equal(t, 1.0, result.Years[1].Parameters["inverter_pdc0"], "inverter keeps its nameplate rating")
	_, ok := cfg.System["inverter_pdc0"]
	assert.False(t, ok, "the configured system is left untouched")

	// inverter efficiency depends on load, so output is no longer proportional to pdc0
	yearly := result.Yearly()
	require.Len(t, yearly, 2)
	assert.Greater(t, math.Abs(yearly[1].Total/yearly[0].Total-0.5), 1e-6)
}

func TestRunAggregateMode(t *testing.T) {
	cfg := baseConfig()
	cfg.Degradation = config.DegradationData{Mode: config.ModeAggregate, Rates: []float64{0, 0.01, 0.01}}

	result, err := NewRunner(nil).Run(context.Background(), cfg)
	require.NoError(t, err)

	yearly := result.Yearly()
	require.Len(t, yearly, 3)
	assert.InDelta(t, 0.99, yearly[1].Total/yearly[0].Total, 1e-9)
	assert.InDelta(t, 0.99*0.99, yearly[2].Total/yearly[0].Total, 1e-9)
	assert.InDelta(t, 0.9801, result.Years[2].Factor, 1e-12)
}

func TestRunEmptyProfile(t *testing.T) {
	cfg := baseConfig()
	cfg.Degradation = config.DegradationData{Mode: config.ModeParameters}

	result, err := NewRunner(nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, result.Output)
}

func TestRunCSVWeather(t *testing.T) {
	var b strings.Builder
	b.WriteString("time,ghi,dni,dhi,temp_air,wind_speed\n")
	start := time.Date(2001, time.June, 21, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 24; h++ {
		ghi, dni, dhi := 0, 0, 0
		if h >= 14 && h <= 23 {
			ghi, dni, dhi = 700, 600, 100
		}
		fmt.Fprintf(&b, "%s,%d,%d,%d,25,1\n", start.Add(time.Duration(h)*time.Hour).Format(time.RFC3339), ghi, dni, dhi)
	}
	path := filepath.Join(t.TempDir(), "weather.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	cfg := baseConfig()
	cfg.Weather = config.WeatherData{Source: config.WeatherSourceCSV, Path: path, CoerceYear: 1990}

	result, err := NewRunner(nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, result.Output, 3*24)
	assert.Equal(t, 2025, result.Output[0].Time.Year())
	assert.Equal(t, time.June, result.Output[0].Time.Month())
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.ConfigData)
	}{
		{"missing weather file", func(c *config.ConfigData) {
			c.Weather = config.WeatherData{Source: config.WeatherSourceCSV, Path: "/nonexistent/weather.csv"}
		}},
		{"unknown weather source", func(c *config.ConfigData) { c.Weather.Source = "satellite" }},
		{"unknown mode", func(c *config.ConfigData) { c.Degradation.Mode = "linear" }},
		{"invalid rate", func(c *config.ConfigData) { c.Degradation.Columns["pdc0"][1] = 1.5 }},
		{"missing pdc0", func(c *config.ConfigData) { delete(c.System, "pdc0") }},
		{"bad timezone", func(c *config.ConfigData) { c.Site.Timezone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			_, err := NewRunner(nil).Run(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}

func TestRunUnknownAirmassModelFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := baseConfig()
	cfg.AirmassModel = "bogus"
	cfg.Degradation.Columns = map[string][]float64{"pdc0": {0}}

	result, err := NewRunner(zap.New(core).Sugar()).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, result.Years, 1)
	assert.Equal(t, 1, logs.FilterField(zap.String("model", "bogus")).Len())
}

func TestProfile(t *testing.T) {
	p, err := Profile(config.DegradationData{Years: []map[string]float64{{}, {"pdc0": 0.01}}})
	require.NoError(t, err)
	assert.Equal(t, degradation.Profile{{}, {"pdc0": 0.01}}, p)

	p, err = Profile(config.DegradationData{Uniform: map[string]float64{"pdc0": 0.005}, UniformYears: 4})
	require.NoError(t, err)
	assert.Len(t, p, 4)

	_, err = Profile(config.DegradationData{Columns: map[string][]float64{"pdc0": {0, 0.01}, "b": {0}}})
	assert.ErrorIs(t, err, degradation.ErrRaggedColumns)

	_, err = Profile(config.DegradationData{Years: []map[string]float64{{"pdc0": 2}}})
	assert.ErrorIs(t, err, degradation.ErrInvalidRate)

	p, err = Profile(config.DegradationData{})
	require.NoError(t, err)
	assert.Empty(t, p)
}
