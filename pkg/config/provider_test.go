package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
name: denver-rooftop
start_year: 2025
airmass_model: gueymard1993
site:
  latitude: 39.74
  longitude: -104.99
  altitude: 1609
  timezone: America/Denver
system:
  pdc0: 1
  gamma_pdc: -0.004
  b: 0.05
degradation:
  mode: parameters
  columns:
    pdc0: [0.0, 0.02, 0.005, 0.005, 0.005]
    gamma_pdc: [0.0, 0.02, 0.005, 0.005, 0.005]
    b: [0.0, 0.02, 0.005, 0.005, 0.005]
weather:
  source: csv
  path: tmy.csv
  coerce_year: 1990
storage:
  parquet:
    path: out.parquet
rest:
  port: 8080
`

func TestParseYAML(t *testing.T) {
	cfg, err := ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "denver-rooftop", cfg.Name)
	assert.Equal(t, 2025, cfg.StartYear)
	assert.Equal(t, "gueymard1993", cfg.AirmassModel)
	assert.Equal(t, 1609.0, cfg.Site.Altitude)
	assert.Equal(t, -0.004, cfg.System["gamma_pdc"])
	assert.Len(t, cfg.Degradation.Columns["pdc0"], 5)
	assert.Equal(t, 1990, cfg.Weather.CoerceYear)
	require.NotNil(t, cfg.Storage.Parquet)
	assert.Equal(t, "out.parquet", cfg.Storage.Parquet.Path)
	assert.Nil(t, cfg.Storage.SQLite)
	require.NotNil(t, cfg.REST)
	assert.Equal(t, 8080, cfg.REST.Port)
}

func TestParseYAMLDefaults(t *testing.T) {
	cfg, err := ParseYAML([]byte("start_year: 2020\nsystem: {pdc0: 100}\n"))
	require.NoError(t, err)
	assert.Equal(t, ModeParameters, cfg.Degradation.Mode)
	assert.Equal(t, WeatherSourceClearSky, cfg.Weather.Source)
	assert.NoError(t, cfg.Validate())
}

func TestParseYAMLRejectsUnknownKeys(t *testing.T) {
	_, err := ParseYAML([]byte("start_year: 2020\nstartyear: 2021\n"))
	assert.Error(t, err)
}

func TestYAMLProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	p := NewYAMLProvider(path)
	defer p.Close()
	assert.True(t, p.IsReadOnly())

	cfg, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "denver-rooftop", cfg.Name)

	again, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Same(t, cfg, again, "config is cached after first load")

	_, err = NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml")).LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *ConfigData {
		return &ConfigData{
			StartYear:   2025,
			Site:        SiteData{Latitude: 40, Longitude: -105},
			System:      map[string]float64{"pdc0": 1},
			Degradation: DegradationData{Mode: ModeParameters},
			Weather:     WeatherData{Source: WeatherSourceClearSky},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *ConfigData)
		wantErr bool
	}{
		{"valid", func(c *ConfigData) {}, false},
		{"aggregate", func(c *ConfigData) { c.Degradation.Mode = ModeAggregate; c.Degradation.Rates = []float64{0, 0.01} }, false},
		{"missing start year", func(c *ConfigData) { c.StartYear = 0 }, true},
		{"latitude out of range", func(c *ConfigData) { c.Site.Latitude = 91 }, true},
		{"longitude out of range", func(c *ConfigData) { c.Site.Longitude = -181 }, true},
		{"missing pdc0", func(c *ConfigData) { delete(c.System, "pdc0") }, true},
		{"unknown mode", func(c *ConfigData) { c.Degradation.Mode = "linear" }, true},
		{"two profile sources", func(c *ConfigData) {
			c.Degradation.Years = []map[string]float64{{"pdc0": 0.01}}
			c.Degradation.UniformYears = 3
		}, true},
		{"csv without path", func(c *ConfigData) { c.Weather.Source = WeatherSourceCSV }, true},
		{"unknown weather source", func(c *ConfigData) { c.Weather.Source = "satellite" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestYearRecords(t *testing.T) {
	records, err := DegradationData{Columns: map[string][]float64{
		"pdc0": {0, 0.02},
		"b":    {0, 0.01},
	}}.YearRecords()
	require.NoError(t, err)
	assert.Equal(t, []map[string]float64{
		{"pdc0": 0, "b": 0},
		{"pdc0": 0.02, "b": 0.01},
	}, records)

	records, err = DegradationData{Uniform: map[string]float64{"pdc0": 0.005}, UniformYears: 3}.YearRecords()
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 0.005, records[2]["pdc0"])

	_, err = DegradationData{Columns: map[string][]float64{
		"pdc0": {0, 0.02},
		"b":    {0},
	}}.YearRecords()
	assert.Error(t, err)

	records, err = DegradationData{}.YearRecords()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	p, err := NewSQLiteProvider(":memory:", "")
	require.NoError(t, err)
	defer p.Close()
	assert.False(t, p.IsReadOnly())

	cfg, err := ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)
	cfg.Name = DefaultScenario
	require.NoError(t, p.SaveConfig(cfg))

	loaded, err := p.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultScenario, loaded.Name)
	assert.Equal(t, cfg.StartYear, loaded.StartYear)
	assert.Equal(t, cfg.AirmassModel, loaded.AirmassModel)
	assert.Equal(t, cfg.Site, loaded.Site)
	assert.Equal(t, cfg.System, loaded.System)
	assert.Equal(t, cfg.Weather, loaded.Weather)
	assert.Equal(t, cfg.Storage.Parquet, loaded.Storage.Parquet)
	assert.Nil(t, loaded.Storage.SQLite)
	assert.Equal(t, cfg.REST.Port, loaded.REST.Port)

	// columns are stored expanded per year
	want, err := cfg.Degradation.YearRecords()
	require.NoError(t, err)
	assert.Equal(t, ModeParameters, loaded.Degradation.Mode)
	assert.Equal(t, want, loaded.Degradation.Years)
}

func TestSQLiteProviderAggregateAndReplace(t *testing.T) {
	p, err := NewSQLiteProvider(":memory:", "fleet")
	require.NoError(t, err)
	defer p.Close()

	cfg := &ConfigData{
		Name:        "fleet",
		StartYear:   2030,
		Site:        SiteData{Latitude: 10, Longitude: 20},
		System:      map[string]float64{"pdc0": 5000},
		Degradation: DegradationData{Mode: ModeAggregate, Rates: []float64{0, 0.01, 0.005}},
	}
	require.NoError(t, p.SaveConfig(cfg))

	loaded, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ModeAggregate, loaded.Degradation.Mode)
	assert.Equal(t, []float64{0, 0.01, 0.005}, loaded.Degradation.Rates)
	assert.Equal(t, WeatherSourceClearSky, loaded.Weather.Source)
	assert.Nil(t, loaded.REST)

	// saving under the same name replaces the scenario
	cfg.Degradation.Rates = []float64{0.02}
	require.NoError(t, p.SaveConfig(cfg))
	loaded, err = p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.02}, loaded.Degradation.Rates)

	names, err := p.ListScenarios()
	require.NoError(t, err)
	assert.Equal(t, []string{"fleet"}, names)
}

func TestSQLiteProviderEmptyYearsPreserved(t *testing.T) {
	p, err := NewSQLiteProvider(":memory:", "")
	require.NoError(t, err)
	defer p.Close()

	cfg := &ConfigData{
		StartYear: 2025,
		System:    map[string]float64{"pdc0": 1},
		Degradation: DegradationData{Years: []map[string]float64{
			{}, {"pdc0": 0.01}, {},
		}},
	}
	require.NoError(t, p.SaveConfig(cfg))

	loaded, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []map[string]float64{{}, {"pdc0": 0.01}, {}}, loaded.Degradation.Years)
}

func TestSQLiteProviderMissingScenario(t *testing.T) {
	p, err := NewSQLiteProvider(":memory:", "nope")
	require.NoError(t, err)
	defer p.Close()

	_, err = p.LoadConfig()
	assert.ErrorContains(t, err, "not found")
}
