// Package degradation simulates year-over-year PV performance degradation and
// assembles the yearly output into a single lifetime production series.
//
// Two modes are offered. SimulateLifetime degrades individual system
// parameters and re-runs a performance evaluator for every simulated year.
// SimulateAggregate scales an already computed single-year output directly.
// In both modes degradation compounds: a rate applied in year N persists into
// every later year.
package degradation

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrissnell/pvlifetime/internal/timeseries"
	"github.com/chrissnell/pvlifetime/internal/weather"
	"go.uber.org/zap"
)

var (
	// ErrNilEvaluator is returned when no evaluator is supplied
	ErrNilEvaluator = errors.New("evaluator is required")
	// ErrMisaligned is returned when evaluator output does not line up with the weather series
	ErrMisaligned = errors.New("evaluator output is not aligned with the weather series")
)

// Evaluator converts weather and a system configuration into a power series
// aligned to the weather's own timestamps. It must be a pure function of its
// inputs.
type Evaluator interface {
	Run(ctx context.Context, w *weather.Series, params Parameters) (timeseries.Series, error)
}

// EvaluatorFunc adapts a plain function to the Evaluator interface
type EvaluatorFunc func(ctx context.Context, w *weather.Series, params Parameters) (timeseries.Series, error)

// Run calls f
func (f EvaluatorFunc) Run(ctx context.Context, w *weather.Series, params Parameters) (timeseries.Series, error) {
	return f(ctx, w, params)
}

// YearState records what was in effect for one simulated year
type YearState struct {
	Index      int        `json:"index"`
	Year       int        `json:"year"`
	Parameters Parameters `json:"parameters,omitempty"` // parameter mode only
	Factor     float64    `json:"factor,omitempty"`     // aggregate mode only
	Samples    int        `json:"samples"`
}

// Result is the outcome of a simulation run
type Result struct {
	Output         timeseries.Series
	Years          []YearState
	DroppedLeapDay int
}

// Yearly summarizes the lifetime output per calendar year
func (r *Result) Yearly() []timeseries.YearTotal {
	return r.Output.YearlyTotals()
}

// Simulator runs degradation simulations. It holds no per-run state, so one
// Simulator may serve many runs.
type Simulator struct {
	logger *zap.SugaredLogger
}

// NewSimulator creates a Simulator that reports recoverable anomalies to
// logger. A nil logger discards them.
func NewSimulator(logger *zap.SugaredLogger) *Simulator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Simulator{logger: logger}
}

// Apply returns the configuration that results from degrading prev by rec.
// prev is not modified. Names in rec that are absent from prev are reported
// and skipped.
func (s *Simulator) Apply(prev Parameters, rec Record) Parameters {
	next := prev.Clone()
	for _, name := range rec.Names() {
		cur, ok := next[name]
		if !ok {
			s.logger.Warnw("degradation parameter not in current system parameters; leaving configuration unchanged",
				"parameter", name,
				"valid_parameters", next.Names())
			continue
		}
		next[name] = cur * (1 - rec[name])
	}
	return next
}

// SimulateLifetime degrades baseline year by year according to profile,
// evaluates each year's configuration against the same reference weather and
// returns the concatenated output with year index i relabelled to
// startYear+i. baseline is never modified.
func (s *Simulator) SimulateLifetime(ctx context.Context, baseline Parameters, w *weather.Series, profile Profile, startYear int, ev Evaluator) (*Result, error) {
	if ev == nil {
		return nil, ErrNilEvaluator
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if len(profile) == 0 {
		return &Result{Output: timeseries.Series{}}, nil
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weather series: %w", err)
	}

	result := &Result{Years: make([]YearState, 0, len(profile))}
	fragments := make([]timeseries.Series, 0, len(profile))

	current := baseline.Clone()
	for i, rec := range profile {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation cancelled before year index %d: %w", i, err)
		}

		current = s.Apply(current, rec)
		year := startYear + i

		out, err := ev.Run(ctx, w, current)
		if err != nil {
			return nil, fmt.Errorf("evaluator failed for year %d: %w", year, err)
		}
		if err := checkAligned(w, out); err != nil {
			return nil, fmt.Errorf("year %d: %w", year, err)
		}

		retimed, stats := out.Retime(year)
		if stats.DroppedLeapDay > 0 {
			s.logger.Debugw("dropped leap-day samples with no counterpart in target year",
				"year", year, "dropped", stats.DroppedLeapDay)
		}
		result.DroppedLeapDay += stats.DroppedLeapDay
		fragments = append(fragments, retimed)
		result.Years = append(result.Years, YearState{
			Index:      i,
			Year:       year,
			Parameters: current.Clone(),
			Samples:    len(retimed),
		})

		s.logger.Debugw("simulated year", "year", year, "samples", len(retimed))
	}

	result.Output = timeseries.Concat(fragments...)
	return result, nil
}

// SimulateAggregate degrades an already computed single-year output. Year N
// is baseline scaled by the product of (1 - rates[k]) for k = 0..N and
// relabelled to startYear+N. No evaluator is involved.
func (s *Simulator) SimulateAggregate(baseline timeseries.Series, rates []float64, startYear int) (*Result, error) {
	for i, rate := range rates {
		if err := validateRate(rate); err != nil {
			return nil, fmt.Errorf("year index %d: %w", i, err)
		}
	}
	if len(rates) == 0 {
		return &Result{Output: timeseries.Series{}}, nil
	}
	if err := baseline.Validate(); err != nil {
		return nil, fmt.Errorf("invalid baseline output: %w", err)
	}

	result := &Result{Years: make([]YearState, 0, len(rates))}
	fragments := make([]timeseries.Series, 0, len(rates))

	factor := 1.0
	for i, rate := range rates {
		factor *= 1 - rate
		year := startYear + i

		retimed, stats := baseline.Scale(factor).Retime(year)
		result.DroppedLeapDay += stats.DroppedLeapDay
		fragments = append(fragments, retimed)
		result.Years = append(result.Years, YearState{
			Index:   i,
			Year:    year,
			Factor:  factor,
			Samples: len(retimed),
		})
	}

	result.Output = timeseries.Concat(fragments...)
	return result, nil
}

func checkAligned(w *weather.Series, out timeseries.Series) error {
	if len(out) != w.Len() {
		return fmt.Errorf("%w: %d output samples for %d weather readings", ErrMisaligned, len(out), w.Len())
	}
	for i, p := range out {
		if !p.Time.Equal(w.Readings[i].Time) {
			return fmt.Errorf("%w: output index %d at %s, weather at %s", ErrMisaligned, i, p.Time, w.Readings[i].Time)
		}
	}
	return nil
}
