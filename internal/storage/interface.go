// Package storage defines the sinks that persist lifetime simulation runs.
package storage

import (
	"context"
	"time"

	"github.com/chrissnell/pvlifetime/internal/timeseries"
	"github.com/google/uuid"
)

// Sink is implemented by every storage backend that accepts simulation runs
type Sink interface {
	Name() string
	Store(ctx context.Context, run *Run) error
	Close() error
}

// Run is one completed lifetime simulation
type Run struct {
	ID        uuid.UUID              `json:"id" msgpack:"id"`
	Scenario  string                 `json:"scenario" msgpack:"scenario"`
	Mode      string                 `json:"mode" msgpack:"mode"`
	StartYear int                    `json:"start_year" msgpack:"start_year"`
	CreatedAt time.Time              `json:"created_at" msgpack:"created_at"`
	Output    timeseries.Series      `json:"output" msgpack:"output"`
	Yearly    []timeseries.YearTotal `json:"yearly" msgpack:"yearly"`
}

// NewRun wraps a simulation output in a Run with a fresh ID
func NewRun(scenario, mode string, startYear int, output timeseries.Series) *Run {
	return &Run{
		ID:        uuid.New(),
		Scenario:  scenario,
		Mode:      mode,
		StartYear: startYear,
		CreatedAt: time.Now().UTC(),
		Output:    output,
		Yearly:    output.YearlyTotals(),
	}
}
