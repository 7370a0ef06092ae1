// Package sqlite persists simulation runs to a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chrissnell/pvlifetime/internal/storage"
	"github.com/chrissnell/pvlifetime/internal/timeseries"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	scenario TEXT NOT NULL,
	mode TEXT NOT NULL,
	start_year INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_output (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	time INTEGER NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run_id, time)
);

CREATE TABLE IF NOT EXISTS run_yearly (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	year INTEGER NOT NULL,
	samples INTEGER NOT NULL,
	total REAL NOT NULL,
	mean REAL NOT NULL,
	peak REAL NOT NULL,
	PRIMARY KEY (run_id, year)
);
`

// Storage is a SQLite run sink
type Storage struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// New opens the database at path and creates the run tables
func New(ctx context.Context, path string, logger *zap.SugaredLogger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.ExecContext(ctx, createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create run tables: %w", err)
	}

	return &Storage{db: db, logger: logger}, nil
}

// Name identifies the sink
func (s *Storage) Name() string {
	return "sqlite"
}

// Store writes the run, its output and its yearly summary in one transaction
func (s *Storage) Store(ctx context.Context, run *storage.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := run.ID.String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, mode, start_year, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, run.Scenario, run.Mode, run.StartYear, run.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	outStmt, err := tx.PrepareContext(ctx, `INSERT INTO run_output (run_id, time, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer outStmt.Close()

	for _, p := range run.Output {
		if _, err := outStmt.ExecContext(ctx, id, p.Time.UnixMilli(), p.Value); err != nil {
			return fmt.Errorf("failed to insert output at %s: %w", p.Time, err)
		}
	}

	for _, y := range run.Yearly {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_yearly (run_id, year, samples, total, mean, peak) VALUES (?, ?, ?, ?, ?, ?)`,
			id, y.Year, y.Samples, y.Total, y.Mean, y.Peak)
		if err != nil {
			return fmt.Errorf("failed to insert yearly summary for %d: %w", y.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Infow("stored run", "sink", s.Name(), "run", id, "rows", len(run.Output))
	return nil
}

// LoadOutput reads a stored run's output series in time order
func (s *Storage) LoadOutput(ctx context.Context, id uuid.UUID) (timeseries.Series, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, value FROM run_output WHERE run_id = ? ORDER BY time`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query run output: %w", err)
	}
	defer rows.Close()

	var out timeseries.Series
	for rows.Next() {
		var (
			ms    int64
			value float64
		)
		if err := rows.Scan(&ms, &value); err != nil {
			return nil, err
		}
		out = append(out, timeseries.Point{Time: time.UnixMilli(ms).UTC(), Value: value})
	}
	return out, rows.Err()
}

// LoadYearly reads a stored run's yearly summary
func (s *Storage) LoadYearly(ctx context.Context, id uuid.UUID) ([]timeseries.YearTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT year, samples, total, mean, peak FROM run_yearly WHERE run_id = ? ORDER BY year`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query yearly summary: %w", err)
	}
	defer rows.Close()

	var yearly []timeseries.YearTotal
	for rows.Next() {
		var y timeseries.YearTotal
		if err := rows.Scan(&y.Year, &y.Samples, &y.Total, &y.Mean, &y.Peak); err != nil {
			return nil, err
		}
		yearly = append(yearly, y)
	}
	return yearly, rows.Err()
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
