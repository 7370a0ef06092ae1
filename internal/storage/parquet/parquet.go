// Package parquet writes simulation runs as Parquet files, one file per run.
package parquet

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/chrissnell/pvlifetime/internal/storage"
	"github.com/chrissnell/pvlifetime/internal/timeseries"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

const batchSize = 8760

// OutputRow matches the Parquet schema of a run file
type OutputRow struct {
	RunID     string  `parquet:"run_id"`
	Scenario  string  `parquet:"scenario"`
	Year      int32   `parquet:"year"`
	Timestamp int64   `parquet:"timestamp"` // Unix milliseconds
	Value     float64 `parquet:"value"`
}

// Storage writes runs below Dir
type Storage struct {
	Dir    string
	logger *zap.SugaredLogger
}

// New creates the output directory if needed
func New(dir string, logger *zap.SugaredLogger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create parquet output directory: %w", err)
	}
	return &Storage{Dir: dir, logger: logger}, nil
}

// Name identifies the sink
func (s *Storage) Name() string {
	return "parquet"
}

// Path returns the file a run is written to
func (s *Storage) Path(run *storage.Run) string {
	return filepath.Join(s.Dir, run.ID.String()+".parquet")
}

// Store writes the run's output series to its own Parquet file
func (s *Storage) Store(ctx context.Context, run *storage.Run) error {
	path := s.Path(run)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteRows(ctx, f, run); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	s.logger.Infow("stored run", "sink", s.Name(), "run", run.ID, "path", path, "rows", len(run.Output))
	return f.Close()
}

// Close is a no-op
func (s *Storage) Close() error {
	return nil
}

// WriteRows encodes run's output to w
func WriteRows(ctx context.Context, w io.Writer, run *storage.Run) error {
	writer := parquet.NewGenericWriter[OutputRow](w)

	id := run.ID.String()
	rows := make([]OutputRow, 0, batchSize)
	for i, p := range run.Output {
		rows = append(rows, OutputRow{
			RunID:     id,
			Scenario:  run.Scenario,
			Year:      int32(p.Time.Year()),
			Timestamp: p.Time.UnixMilli(),
			Value:     p.Value,
		})
		if len(rows) == batchSize || i == len(run.Output)-1 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := writer.Write(rows); err != nil {
				return err
			}
			rows = rows[:0]
		}
	}

	return writer.Close()
}

// ReadFile loads the output series back from a run file
func ReadFile(path string) (timeseries.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parquet open error: %w", err)
	}

	reader := parquet.NewGenericReader[OutputRow](pf)
	defer reader.Close()

	out := make(timeseries.Series, 0, reader.NumRows())
	rows := make([]OutputRow, 1000)
	for {
		n, err := reader.Read(rows)
		for i := 0; i < n; i++ {
			out = append(out, timeseries.Point{
				Time:  time.UnixMilli(rows[i].Timestamp).UTC(),
				Value: rows[i].Value,
			})
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return out, nil
}
