package timescaledb

import (
	"testing"
	"time"

	"github.com/chrissnell/pvlifetime/internal/storage"
	"github.com/chrissnell/pvlifetime/internal/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToModels(t *testing.T) {
	start := time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)
	run := storage.NewRun("tsdb", "parameters", 2025, timeseries.Series{
		{Time: start, Value: 10},
		{Time: start.AddDate(1, 0, 0), Value: 9.5},
	})

	runRow, output, yearly := toModels(run)
	assert.Equal(t, run.ID, runRow.ID)
	assert.Equal(t, "tsdb", runRow.Scenario)
	assert.Equal(t, 2025, runRow.StartYear)

	require.Len(t, output, 2)
	assert.Equal(t, run.ID, output[1].RunID)
	assert.Equal(t, 9.5, output[1].Value)
	assert.True(t, output[1].Time.Equal(start.AddDate(1, 0, 0)))

	require.Len(t, yearly, 2)
	assert.Equal(t, 2026, yearly[1].Year)
	assert.Equal(t, 9.5, yearly[1].Total)
	assert.Equal(t, run.ID, yearly[0].RunID)
}
