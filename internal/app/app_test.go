package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chrissnell/pvlifetime/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(dir string) *config.ConfigData {
	return &config.ConfigData{
		Name:      "app-test",
		StartYear: 2025,
		Site:      config.SiteData{Latitude: 45, Longitude: 7, Altitude: 300},
		System:    map[string]float64{"pdc0": 250},
		Degradation: config.DegradationData{
			Mode:  config.ModeAggregate,
			Rates: []float64{0, 0.005},
		},
		Weather: config.WeatherData{Source: config.WeatherSourceClearSky, Year: 2021, StepMinutes: 60},
		Storage: config.StorageData{
			SQLite:  &config.SQLiteData{Path: filepath.Join(dir, "runs.db")},
			Msgpack: &config.FileData{Path: filepath.Join(dir, "msgpack")},
		},
	}
}

func TestRunStoresAndSummarizes(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, New(testConfig(dir), nil, &out).Run(context.Background(), false))

	summary := out.String()
	assert.Contains(t, summary, "app-test")
	assert.Contains(t, summary, "2025")
	assert.Contains(t, summary, "2026")
	assert.Contains(t, summary, "0.9950")

	entries, err := os.ReadDir(filepath.Join(dir, "msgpack"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = os.Stat(filepath.Join(dir, "runs.db"))
	assert.NoError(t, err)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.StartYear = 0
	assert.Error(t, New(cfg, nil, &bytes.Buffer{}).Run(context.Background(), false))
}

func TestRunSimulationError(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Degradation.Rates = []float64{1.5}
	err := New(cfg, nil, &bytes.Buffer{}).Run(context.Background(), false)
	assert.ErrorContains(t, err, "simulation failed")
}
