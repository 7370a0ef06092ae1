// Package weather holds the single-reference-year weather series that drives a
// PV performance evaluation.
package weather

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmpty is returned for a weather series without readings
	ErrEmpty = errors.New("weather series is empty")
	// ErrNotIncreasing is returned when reading timestamps are not strictly increasing
	ErrNotIncreasing = errors.New("weather timestamps are not strictly increasing")
	// ErrIrregular is returned when readings are not uniformly spaced
	ErrIrregular = errors.New("weather readings are not uniformly spaced")
	// ErrMultipleYears is returned when readings span more than one calendar year
	ErrMultipleYears = errors.New("weather readings span more than one calendar year")
	// ErrLeapDay is returned when year coercion would move a Feb 29 reading
	// into a year that has no Feb 29
	ErrLeapDay = errors.New("leap-day reading cannot be coerced")
)

// Reading is one weather sample. Irradiance in W/m², temperature in °C, wind in m/s.
type Reading struct {
	Time      time.Time `json:"time" yaml:"time"`
	GHI       float64   `json:"ghi" yaml:"ghi"`
	DNI       float64   `json:"dni" yaml:"dni"`
	DHI       float64   `json:"dhi" yaml:"dhi"`
	TempAir   float64   `json:"temp_air" yaml:"temp_air"`
	WindSpeed float64   `json:"wind_speed" yaml:"wind_speed"`
}

// Series is an ordered weather series covering one reference year. It is
// treated as immutable once built.
type Series struct {
	Readings []Reading
}

// NewSeries builds a Series and validates it
func NewSeries(readings []Reading) (*Series, error) {
	s := &Series{Readings: readings}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of readings
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Readings)
}

// Times returns the reading timestamps
func (s *Series) Times() []time.Time {
	out := make([]time.Time, s.Len())
	for i := range out {
		out[i] = s.Readings[i].Time
	}
	return out
}

// Year returns the calendar year of the first reading
func (s *Series) Year() int {
	if s.Len() == 0 {
		return 0
	}
	return s.Readings[0].Time.Year()
}

// Step returns the spacing between consecutive readings, or zero when there
// are fewer than two readings
func (s *Series) Step() time.Duration {
	if s.Len() < 2 {
		return 0
	}
	return s.Readings[1].Time.Sub(s.Readings[0].Time)
}

// Validate checks that the series is non-empty, strictly increasing,
// uniformly spaced and confined to a single calendar year
func (s *Series) Validate() error {
	if s.Len() == 0 {
		return ErrEmpty
	}

	year := s.Readings[0].Time.Year()
	step := s.Step()
	for i := 1; i < len(s.Readings); i++ {
		prev, cur := s.Readings[i-1].Time, s.Readings[i].Time
		if !cur.After(prev) {
			return fmt.Errorf("%w: index %d", ErrNotIncreasing, i)
		}
		if cur.Sub(prev) != step {
			return fmt.Errorf("%w: index %d is %s after its predecessor, expected %s", ErrIrregular, i, cur.Sub(prev), step)
		}
		if cur.Year() != year {
			return fmt.Errorf("%w: %d and %d", ErrMultipleYears, year, cur.Year())
		}
	}
	return nil
}
