// Package timescaledb stores simulation runs in a TimescaleDB hypertable.
package timescaledb

import (
	"context"
	"fmt"

	"github.com/chrissnell/pvlifetime/internal/database"
	"github.com/chrissnell/pvlifetime/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const insertBatchSize = 5000

// Storage holds the connection for a TimescaleDB run sink
type Storage struct {
	TimescaleDBConn *gorm.DB
	logger          *zap.SugaredLogger
}

// New connects to TimescaleDB and prepares the schema
func New(ctx context.Context, connectionString string, logger *zap.SugaredLogger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	var err error
	t := &Storage{logger: logger}

	t.TimescaleDBConn, err = database.CreateConnection(connectionString, logger.Desugar())
	if err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		sql  string
	}{
		{"TimescaleDB extension", createExtensionSQL},
		{"runs table", createRunsTableSQL},
		{"output table", createOutputTableSQL},
		{"output hypertable", createHypertableSQL},
		{"output index", createOutputIndexSQL},
		{"yearly table", createYearlyTableSQL},
		{"daily view", create1dViewSQL},
	}
	for _, step := range steps {
		logger.Infof("creating %s...", step.name)
		if err := t.TimescaleDBConn.WithContext(ctx).Exec(step.sql).Error; err != nil {
			logger.Warnf("warning: could not create %s", step.name)
			return nil, fmt.Errorf("could not create %s: %w", step.name, err)
		}
	}

	return t, nil
}

// Name identifies the sink
func (t *Storage) Name() string {
	return "timescaledb"
}

// Store writes the run in a single transaction
func (t *Storage) Store(ctx context.Context, run *storage.Run) error {
	runRow, output, yearly := toModels(run)

	err := t.TimescaleDBConn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&runRow).Error; err != nil {
			return fmt.Errorf("could not store run: %w", err)
		}
		if len(output) > 0 {
			if err := tx.CreateInBatches(output, insertBatchSize).Error; err != nil {
				return fmt.Errorf("could not store output: %w", err)
			}
		}
		if len(yearly) > 0 {
			if err := tx.Create(&yearly).Error; err != nil {
				return fmt.Errorf("could not store yearly summary: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		t.logger.Errorw("could not store run", "run", run.ID, "error", err)
		return err
	}

	t.logger.Infow("stored run", "sink", t.Name(), "run", run.ID, "rows", len(output))
	return nil
}

// Close closes the underlying connection pool
func (t *Storage) Close() error {
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModels(run *storage.Run) (database.PVRun, []database.PVOutput, []database.PVYearly) {
	runRow := database.PVRun{
		ID:        run.ID,
		Scenario:  run.Scenario,
		Mode:      run.Mode,
		StartYear: run.StartYear,
		CreatedAt: run.CreatedAt,
	}

	output := make([]database.PVOutput, len(run.Output))
	for i, p := range run.Output {
		output[i] = database.PVOutput{Time: p.Time, RunID: run.ID, Value: p.Value}
	}

	yearly := make([]database.PVYearly, len(run.Yearly))
	for i, y := range run.Yearly {
		yearly[i] = database.PVYearly{
			RunID:   run.ID,
			Year:    y.Year,
			Samples: y.Samples,
			Total:   y.Total,
			Mean:    y.Mean,
			Peak:    y.Peak,
		}
	}

	return runRow, output, yearly
}
