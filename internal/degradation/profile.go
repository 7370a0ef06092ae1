package degradation

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrInvalidRate is returned for a degradation rate that is NaN or above 1
	ErrInvalidRate = errors.New("degradation rate must be a finite number no greater than 1")
	// ErrRaggedColumns is returned when per-parameter rate columns differ in length
	ErrRaggedColumns = errors.New("degradation rate columns differ in length")
)

// Parameters maps a system parameter name to its value
type Parameters map[string]float64

// Clone returns an independent copy of p
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Names returns the parameter names, sorted
func (p Parameters) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Record holds one year's fractional degradation rate per parameter. A rate
// of 0.05 removes 5% of the parameter's current value.
type Record map[string]float64

// Names returns the parameter names in the record, sorted
func (r Record) Names() []string {
	return Parameters(r).Names()
}

// Validate checks every rate in the record
func (r Record) Validate() error {
	for _, name := range r.Names() {
		if err := validateRate(r[name]); err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
	}
	return nil
}

// Profile is an ordered list of yearly records; index 0 is the first
// simulated year
type Profile []Record

// Validate checks every record in the profile
func (p Profile) Validate() error {
	for i, rec := range p {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("year index %d: %w", i, err)
		}
	}
	return nil
}

// UniformProfile repeats the same record for the given number of years
func UniformProfile(years int, rec Record) Profile {
	if years <= 0 {
		return Profile{}
	}
	p := make(Profile, years)
	for i := range p {
		p[i] = Record(Parameters(rec).Clone())
	}
	return p
}

// ProfileFromColumns builds a profile from per-parameter rate columns, one
// entry per year. All columns must have the same length.
func ProfileFromColumns(columns map[string][]float64) (Profile, error) {
	names := Parameters{}
	for name := range columns {
		names[name] = 0
	}

	years := -1
	for _, name := range names.Names() {
		n := len(columns[name])
		if years == -1 {
			years = n
			continue
		}
		if n != years {
			return nil, fmt.Errorf("%w: %q has %d entries, expected %d", ErrRaggedColumns, name, n, years)
		}
	}
	if years <= 0 {
		return Profile{}, nil
	}

	p := make(Profile, years)
	for i := range p {
		rec := make(Record, len(columns))
		for name, col := range columns {
			rec[name] = col[i]
		}
		p[i] = rec
	}
	return p, p.Validate()
}

func validateRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, -1) || rate > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidRate, rate)
	}
	return nil
}
