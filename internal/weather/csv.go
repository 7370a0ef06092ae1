package weather

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/pvlifetime/internal/timeseries"
)

// Required CSV columns. Column order in the file is free.
var csvColumns = []string{"time", "ghi", "dni", "dhi", "temp_air", "wind_speed"}

// LoadCSV reads a header-mapped CSV weather file. Timestamps are RFC3339.
// When coerceYear is non-zero every timestamp is moved into that year, which
// lets typical-meteorological-year files (whose rows come from different
// source years) be used as a single reference year.
func LoadCSV(r io.Reader, coerceYear int) (*Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range csvColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("CSV is missing required column %q", col)
		}
	}

	var readings []Reading
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(record[idx["time"]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid time: %w", line, err)
		}
		if coerceYear != 0 {
			coerced, ok := timeseries.RetimeInstant(ts, coerceYear)
			if !ok {
				return nil, fmt.Errorf("line %d: %w: %s has no counterpart in %d", line, ErrLeapDay, ts.Format(time.RFC3339), coerceYear)
			}
			ts = coerced
		}

		rd := Reading{Time: ts}
		fields := []struct {
			col string
			dst *float64
		}{
			{"ghi", &rd.GHI},
			{"dni", &rd.DNI},
			{"dhi", &rd.DHI},
			{"temp_air", &rd.TempAir},
			{"wind_speed", &rd.WindSpeed},
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[idx[f.col]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s: %w", line, f.col, err)
			}
			*f.dst = v
		}
		readings = append(readings, rd)
	}

	return NewSeries(readings)
}
