// Package restserver exposes the airmass calculator and the lifetime
// simulator over HTTP.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/pvlifetime/internal/log"
	"github.com/chrissnell/pvlifetime/internal/scenario"
	"github.com/chrissnell/pvlifetime/internal/storage"
	"github.com/chrissnell/pvlifetime/pkg/config"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RunStore persists completed simulation runs
type RunStore interface {
	StoreRun(ctx context.Context, run *storage.Run) error
}

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	runner     *scenario.Runner
	store      RunStore
	health     *storage.HealthManager
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// Option customizes a Controller
type Option func(*Controller)

// WithRunStore makes /simulate persist every run it completes
func WithRunStore(store RunStore) Option {
	return func(c *Controller) { c.store = store }
}

// WithHealth exposes sink health on /health
func WithHealth(hm *storage.HealthManager) Option {
	return func(c *Controller) { c.health = hm }
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, logger *zap.SugaredLogger, opts ...Option) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		runner:     scenario.NewRunner(logger),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(ctrl)
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}
	if rc.Port < 0 || rc.Port > 65535 {
		return nil, fmt.Errorf("invalid rest.port %d", rc.Port)
	}
	ctrl.restConfig = rc

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(
		handlers.CompressHandler(ctrl.Router()),
	)
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Router configures the HTTP router with all endpoints
func (c *Controller) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(c.logger))

	router.HandleFunc("/airmass", c.handlers.GetAirmass).Methods(http.MethodGet)
	router.HandleFunc("/models", c.handlers.GetModels).Methods(http.MethodGet)
	router.HandleFunc("/simulate", c.handlers.PostSimulate).Methods(http.MethodPost)
	router.HandleFunc("/health", c.handlers.GetHealth).Methods(http.MethodGet)

	return router
}
