// Package timeseries holds the timestamp-indexed power/energy series produced
// by a performance evaluator and the calendar operations used to assemble
// multi-year lifetime output from single-year fragments.
package timeseries

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNotIncreasing is returned when timestamps are not strictly increasing
	ErrNotIncreasing = errors.New("timestamps are not strictly increasing")
	// ErrLengthMismatch is returned when two series that must align differ in length
	ErrLengthMismatch = errors.New("series lengths differ")
)

// Point is a single timestamped output value
type Point struct {
	Time  time.Time `json:"time" msgpack:"time"`
	Value float64   `json:"value" msgpack:"value"`
}

// Series is an ordered, timestamp-indexed sequence of output values
type Series []Point

// RetimeStats reports what happened while moving a series into a new year
type RetimeStats struct {
	// DroppedLeapDay counts Feb 29 instants that had no counterpart in a non-leap target year
	DroppedLeapDay int
}

// YearTotal summarizes one calendar year of a series
type YearTotal struct {
	Year    int     `json:"year" msgpack:"year" parquet:"year"`
	Samples int     `json:"samples" msgpack:"samples" parquet:"samples"`
	Total   float64 `json:"total" msgpack:"total" parquet:"total"`
	Mean    float64 `json:"mean" msgpack:"mean" parquet:"mean"`
	Peak    float64 `json:"peak" msgpack:"peak" parquet:"peak"`
}

// New builds a series from parallel time and value slices
func New(times []time.Time, values []float64) (Series, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d times, %d values", ErrLengthMismatch, len(times), len(values))
	}
	s := make(Series, len(times))
	for i := range times {
		s[i] = Point{Time: times[i], Value: values[i]}
	}
	return s, nil
}

// Len returns the number of points
func (s Series) Len() int {
	return len(s)
}

// Times returns the timestamps of the series
func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Time
	}
	return out
}

// Values returns the values of the series
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Clone returns a deep copy of the series
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Scale returns a copy of the series with every value multiplied by f
func (s Series) Scale(f float64) Series {
	vals := s.Values()
	floats.Scale(f, vals)
	out := make(Series, len(s))
	for i, p := range s {
		out[i] = Point{Time: p.Time, Value: vals[i]}
	}
	return out
}

// Validate checks that timestamps are strictly increasing
func (s Series) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return fmt.Errorf("%w: index %d (%s) does not follow %s",
				ErrNotIncreasing, i, s[i].Time.Format(time.RFC3339), s[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Retime returns a copy of the series with each timestamp's calendar year
// replaced by year, as described by RetimeInstant.
// A Feb 29 instant moved into a non-leap year has no counterpart and is
// dropped; clamping it onto Feb 28 would collide with existing samples.
func (s Series) Retime(year int) (Series, RetimeStats) {
	var stats RetimeStats
	out := make(Series, 0, len(s))
	for _, p := range s {
		t, ok := RetimeInstant(p.Time, year)
		if !ok {
			stats.DroppedLeapDay++
			continue
		}
		out = append(out, Point{Time: t, Value: p.Value})
	}
	return out, stats
}

// RetimeInstant moves t into the given calendar year. The calendar fields are
// rebuilt at t's own UTC offset rather than resolved through its location's
// zone rules, so distinct instants stay distinct across daylight-saving
// transitions. The result is expressed in t's location. It reports false for
// a Feb 29 instant when year is not a leap year.
func RetimeInstant(t time.Time, year int) (time.Time, bool) {
	if t.Month() == time.February && t.Day() == 29 && !IsLeapYear(year) {
		return time.Time{}, false
	}
	name, offset := t.Zone()
	fixed := time.FixedZone(name, offset)
	moved := time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), fixed)
	return moved.In(t.Location()), true
}

// IsLeapYear reports whether year has a Feb 29 in the Gregorian calendar
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Concat joins fragments in order with a single allocation
func Concat(fragments ...Series) Series {
	total := 0
	for _, f := range fragments {
		total += len(f)
	}
	out := make(Series, 0, total)
	for _, f := range fragments {
		out = append(out, f...)
	}
	return out
}

// Years returns the distinct calendar years present, in order of appearance
func (s Series) Years() []int {
	var years []int
	for i, p := range s {
		y := p.Time.Year()
		if i == 0 || y != s[i-1].Time.Year() {
			years = append(years, y)
		}
	}
	return years
}

// YearlyTotals groups consecutive points by calendar year and summarizes each
// group
func (s Series) YearlyTotals() []YearTotal {
	var totals []YearTotal
	start := 0
	for i := 1; i <= len(s); i++ {
		if i < len(s) && s[i].Time.Year() == s[start].Time.Year() {
			continue
		}
		vals := s[start:i].Values()
		totals = append(totals, YearTotal{
			Year:    s[start].Time.Year(),
			Samples: len(vals),
			Total:   floats.Sum(vals),
			Mean:    stat.Mean(vals, nil),
			Peak:    floats.Max(vals),
		})
		start = i
	}
	return totals
}
