// Package database opens gorm connections to TimescaleDB and holds the gorm
// models for stored simulation runs.
package database

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go.uber.org/zap"
)

// CreateConnection opens a gorm connection to TimescaleDB. gorm's own
// diagnostics are routed through zl.
func CreateConnection(connectionString string, zl *zap.Logger) (*gorm.DB, error) {
	if zl == nil {
		zl = zap.NewNop()
	}

	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(zl),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,
		},
	)

	pgConfig, err := pgx.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid TimescaleDB connection string: %w", err)
	}

	zl.Sugar().Infof("connecting to TimescaleDB at %s:%d/%s...", pgConfig.Host, pgConfig.Port, pgConfig.Database)
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		zl.Sugar().Warnw("unable to create a TimescaleDB connection", "error", err)
		return nil, err
	}

	return db, nil
}
