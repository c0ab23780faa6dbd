package app

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/modelq-io/modelq"
	"github.com/modelq-io/modelq/config"
	"github.com/modelq-io/modelq/executor"
	"github.com/modelq-io/modelq/pkg/log"
	"github.com/modelq-io/modelq/pkg/metrics"
	"github.com/modelq-io/modelq/pkg/stats"
	"github.com/modelq-io/modelq/pkg/tracing"
	"github.com/modelq-io/modelq/proxy"
	"github.com/modelq-io/modelq/scheduler"
	"github.com/modelq-io/modelq/status"
	"github.com/modelq-io/modelq/status/health"
)

var (
	ErrApplicationStarted = errors.New("already started")
	ErrApplicationStopped = errors.New("already stopped")
)

type Application struct {
	nodeID string

	cfg *config.Config

	mux     sync.Mutex
	started bool

	stop chan struct{}

	log     *zap.SugaredLogger
	metrics *metrics.Metrics
	tracer  *tracing.Tracer

	scheduler *scheduler.Scheduler
	gateway   *proxy.Gateway
	status    *status.Status
}

func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		nodeID: uuid.NewV4().String(),
		cfg:    cfg,
		stop:   make(chan struct{}),
	}

	err := app.initialize()
	if err != nil {
		return nil, err
	}

	return app, nil
}

func (app *Application) initialize() error {
	cfg := app.cfg

	logger, err := log.NewZapLogger(&cfg.Log)
	if err != nil {
		return err
	}
	app.log = logger

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		app.log.Error(err)
	}))

	// tracing
	tracer, err := tracing.New(&cfg.Tracing)
	if err != nil {
		return err
	}
	app.tracer = tracer

	// metrics
	app.metrics, err = metrics.New(cfg.Metrics)
	if err != nil {
		return err
	}

	// scheduler
	httpExecutor := executor.NewHTTPExecutor(&cfg.Executor)
	app.scheduler = scheduler.NewScheduler(&cfg.Scheduler, httpExecutor, app.metrics)
	stats.Register(app.scheduler)

	// gateway
	app.gateway = proxy.NewGateway(&cfg.Proxy, app.scheduler, app.metrics, app.tracer)

	// status
	indicators := []*health.Indicator{
		health.NewIndicator("scheduler", func() error {
			if !app.scheduler.Running() {
				return errors.New("scheduler is not running")
			}
			return nil
		}),
	}
	app.status = status.NewStatus(cfg.Status, status.Options{
		Indicators: indicators,
	})

	return nil
}

func (app *Application) NodeID() string {
	return app.nodeID
}

func (app *Application) Config() *config.Config {
	return app.cfg
}

func (app *Application) Scheduler() *scheduler.Scheduler {
	return app.scheduler
}

// Start starts the application.
func (app *Application) Start() error {
	app.mux.Lock()
	defer app.mux.Unlock()

	if app.started {
		return ErrApplicationStarted
	}

	app.log.Infof("starting ModelQ %s", modelq.VERSION)

	now := time.Now()
	stats.Register(stats.ProviderFunc(func() map[string]interface{} {
		return map[string]interface{}{
			"started_at": now,
		}
	}))

	if err := app.scheduler.Start(); err != nil {
		return err
	}
	// ingress opens only after every instance has an idle consumer
	app.scheduler.WaitReady()

	app.gateway.Start()
	if err := app.status.Start(); err != nil {
		return err
	}

	app.started = true

	return nil
}

func (app *Application) Wait() {
	<-app.stop
}

// Stop stops the application.
func (app *Application) Stop() error {
	app.mux.Lock()
	defer app.mux.Unlock()

	if !app.started {
		return ErrApplicationStopped
	}

	app.log.Info("exiting")

	defer func() {
		app.log.Info("exit")
		_ = app.log.Sync()
	}()

	_ = app.gateway.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.status.Stop(ctx)

	_ = app.scheduler.Stop()

	if app.metrics != nil {
		_ = app.metrics.Stop()
	}
	if app.tracer != nil {
		_ = app.tracer.Stop()
	}

	app.started = false
	app.stop <- struct{}{}

	return nil
}
