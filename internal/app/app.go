// Package app runs a configured lifetime simulation end to end.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/chrissnell/pvlifetime/internal/controllers/restserver"
	"github.com/chrissnell/pvlifetime/internal/degradation"
	"github.com/chrissnell/pvlifetime/internal/managers"
	"github.com/chrissnell/pvlifetime/internal/scenario"
	"github.com/chrissnell/pvlifetime/internal/storage"
	"github.com/chrissnell/pvlifetime/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	config *config.ConfigData
	logger *zap.SugaredLogger
	out    io.Writer
}

// New creates a new application instance. The yearly summary of the run is
// written to out (stdout when nil).
func New(cfg *config.ConfigData, logger *zap.SugaredLogger, out io.Writer) *App {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if out == nil {
		out = os.Stdout
	}
	return &App{
		config: cfg,
		logger: logger,
		out:    out,
	}
}

// Run simulates the configured scenario, stores the run in every configured
// sink and prints the yearly summary. With serve set it then starts the REST
// server and blocks until shutdown.
func (a *App) Run(ctx context.Context, serve bool) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.config.Validate(); err != nil {
		return err
	}

	// Initialize the storage manager
	storageManager, err := managers.NewStorageManager(ctx, a.config.Storage, a.logger)
	if err != nil {
		return err
	}
	defer storageManager.Close()

	result, err := scenario.NewRunner(a.logger).Run(ctx, a.config)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	mode := a.config.Degradation.Mode
	if mode == "" {
		mode = config.ModeParameters
	}
	run := storage.NewRun(a.config.Name, mode, a.config.StartYear, result.Output)

	if len(storageManager.Sinks) > 0 {
		if err := storageManager.StoreRun(ctx, run); err != nil {
			return fmt.Errorf("could not store run %s: %w", run.ID, err)
		}
		a.logger.Infow("run stored", "run", run.ID, "sinks", len(storageManager.Sinks))
	}

	if err := WriteSummary(a.out, run, result); err != nil {
		return err
	}

	if !serve {
		return nil
	}

	rc := config.RESTServerData{}
	if a.config.REST != nil {
		rc = *a.config.REST
	}
	rest, err := restserver.NewController(ctx, &wg, rc, a.logger,
		restserver.WithRunStore(storageManager),
		restserver.WithHealth(storageManager.Health))
	if err != nil {
		return err
	}
	if err := rest.StartController(); err != nil {
		return err
	}

	a.logger.Info("application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}

// WriteSummary prints one line per simulated year
func WriteSummary(w io.Writer, run *storage.Run, result *degradation.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "run %s (%s, %s mode)\n", run.ID, run.Scenario, run.Mode)
	fmt.Fprintln(tw, "year\tsamples\ttotal\tmean\tpeak\tvs first\t")

	var first float64
	for i, y := range run.Yearly {
		if i == 0 {
			first = y.Total
		}
		rel := 0.0
		if first != 0 {
			rel = y.Total / first
		}
		fmt.Fprintf(tw, "%d\t%d\t%.3f\t%.4f\t%.4f\t%.4f\t\n", y.Year, y.Samples, y.Total, y.Mean, y.Peak, rel)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if result.DroppedLeapDay > 0 {
		fmt.Fprintf(w, "%d leap-day samples dropped\n", result.DroppedLeapDay)
	}
	return nil
}
