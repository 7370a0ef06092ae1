// Package managers wires configured storage sinks together.
package managers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chrissnell/pvlifetime/internal/storage"
	"github.com/chrissnell/pvlifetime/internal/storage/msgpack"
	"github.com/chrissnell/pvlifetime/internal/storage/parquet"
	"github.com/chrissnell/pvlifetime/internal/storage/sqlite"
	"github.com/chrissnell/pvlifetime/internal/storage/timescaledb"
	"github.com/chrissnell/pvlifetime/pkg/config"
	"go.uber.org/zap"
)

// StorageManager holds our active storage sinks
type StorageManager struct {
	Sinks  []storage.Sink
	Health *storage.HealthManager
	logger *zap.SugaredLogger
}

// NewStorageManager creates a StorageManager populated with every sink
// enabled in c
func NewStorageManager(ctx context.Context, c config.StorageData, logger *zap.SugaredLogger) (*StorageManager, error) {
	s := &StorageManager{
		Health: storage.NewHealthManager(),
		logger: logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}

	if c.SQLite != nil && c.SQLite.Path != "" {
		if err := s.AddEngine(ctx, "sqlite", c); err != nil {
			s.Close()
			return nil, fmt.Errorf("could not add SQLite storage backend: %w", err)
		}
	}

	if c.TimescaleDB != nil && c.TimescaleDB.ConnectionString != "" {
		if err := s.AddEngine(ctx, "timescaledb", c); err != nil {
			s.Close()
			return nil, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}
	}

	if c.Parquet != nil && c.Parquet.Path != "" {
		if err := s.AddEngine(ctx, "parquet", c); err != nil {
			s.Close()
			return nil, fmt.Errorf("could not add Parquet storage backend: %w", err)
		}
	}

	if c.Msgpack != nil && c.Msgpack.Path != "" {
		if err := s.AddEngine(ctx, "msgpack", c); err != nil {
			s.Close()
			return nil, fmt.Errorf("could not add msgpack storage backend: %w", err)
		}
	}

	return s, nil
}

// AddEngine adds the sink named engineName, configured from c
func (s *StorageManager) AddEngine(ctx context.Context, engineName string, c config.StorageData) error {
	var (
		sink storage.Sink
		err  error
	)

	switch engineName {
	case "sqlite":
		sink, err = sqlite.New(ctx, c.SQLite.Path, s.logger)
	case "timescaledb":
		sink, err = timescaledb.New(ctx, c.TimescaleDB.ConnectionString, s.logger)
	case "parquet":
		sink, err = parquet.New(c.Parquet.Path, s.logger)
	case "msgpack":
		sink, err = msgpack.New(c.Msgpack.Path, s.logger)
	default:
		return fmt.Errorf("unknown storage backend %q", engineName)
	}
	if err != nil {
		return err
	}

	s.Add(sink)
	return nil
}

// Add registers an already constructed sink
func (s *StorageManager) Add(sink storage.Sink) {
	s.Sinks = append(s.Sinks, sink)
	s.logger.Infof("enabled %s storage backend", sink.Name())
}

// StoreRun fans run out to every sink concurrently. Every sink is attempted;
// the returned error joins all sink failures.
func (s *StorageManager) StoreRun(ctx context.Context, run *storage.Run) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, sink := range s.Sinks {
		wg.Add(1)
		go func(sink storage.Sink) {
			defer wg.Done()

			err := sink.Store(ctx, run)
			s.Health.Record(sink.Name(), err)
			if err != nil {
				s.logger.Errorw("storage backend failed", "sink", sink.Name(), "run", run.ID, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
				mu.Unlock()
			}
		}(sink)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Close closes every sink
func (s *StorageManager) Close() error {
	var errs []error
	for _, sink := range s.Sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
