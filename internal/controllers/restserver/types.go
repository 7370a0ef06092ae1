package restserver

import (
	"math"

	"github.com/chrissnell/pvlifetime/internal/degradation"
	"github.com/chrissnell/pvlifetime/internal/storage"
	"github.com/chrissnell/pvlifetime/internal/timeseries"
)

// AirmassValue is one zenith/airmass pair. Airmass is null when the model
// yields NaN or ±Inf, which happens at and beyond the horizon.
type AirmassValue struct {
	Zenith   float64  `json:"zenith"`
	Airmass  *float64 `json:"airmass"`
	Absolute *float64 `json:"absolute,omitempty"`
}

// AirmassResponse is returned by GET /airmass
type AirmassResponse struct {
	Model  string         `json:"model"`
	Values []AirmassValue `json:"values"`
}

// ModelsResponse is returned by GET /models
type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

// SimulateResponse is returned by POST /simulate
type SimulateResponse struct {
	RunID          string                  `json:"run_id,omitempty"`
	Scenario       string                  `json:"scenario,omitempty"`
	Mode           string                  `json:"mode"`
	StartYear      int                     `json:"start_year"`
	Samples        int                     `json:"samples"`
	DroppedLeapDay int                     `json:"dropped_leap_day"`
	Years          []degradation.YearState `json:"years"`
	Yearly         []timeseries.YearTotal  `json:"yearly"`
	Output         timeseries.Series       `json:"output,omitempty"`
	Stored         bool                    `json:"stored"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status string                     `json:"status"`
	Sinks  map[string]*storage.Health `json:"sinks,omitempty"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
