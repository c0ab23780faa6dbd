package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/modelq-io/modelq"
	"github.com/modelq-io/modelq/config"
	"github.com/modelq-io/modelq/model"
	"github.com/modelq-io/modelq/pkg/http/middlewares"
	"github.com/modelq-io/modelq/pkg/http/response"
	"github.com/modelq-io/modelq/pkg/metrics"
	"github.com/modelq-io/modelq/pkg/tracing"
	"github.com/modelq-io/modelq/scheduler"
	"github.com/modelq-io/modelq/utils"
)

// Gateway is the client-facing HTTP ingress. It admits inference
// requests, hands them to the scheduler and blocks each connection
// until its response is ready or the proxy timeout fires.
type Gateway struct {
	cfg *config.ProxyConfig

	log       *zap.SugaredLogger
	s         *http.Server
	scheduler *scheduler.Scheduler
	metrics   *metrics.Metrics
	timeout   time.Duration
}

func NewGateway(cfg *config.ProxyConfig, sched *scheduler.Scheduler, m *metrics.Metrics, tracer *tracing.Tracer) *Gateway {
	gw := &Gateway{
		cfg:       cfg,
		log:       zap.S(),
		scheduler: sched,
		metrics:   m,
		timeout:   utils.DurationMs(cfg.Timeout),
	}

	r := mux.NewRouter()
	if tracer != nil {
		r.Use(otelhttp.NewMiddleware("proxy"))
	}
	r.Use(middlewares.PanicRecovery)
	r.HandleFunc("/", gw.Index).Methods("GET")
	r.HandleFunc("/v1/models/{model}/infer", gw.Handle).Methods("POST")

	gw.s = &http.Server{
		Handler: r,
		Addr:    cfg.Listen,

		WriteTimeout: gw.timeout + 10*time.Second,
		ReadTimeout:  60 * time.Second,
	}

	return gw
}

func (gw *Gateway) Index(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"version": modelq.VERSION,
		"commit":  modelq.COMMIT,
	})
}

func (gw *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	modelName := mux.Vars(r)["model"]

	if gw.metrics != nil && gw.metrics.Enabled {
		gw.metrics.RequestTotalCounter.With("model", modelName).Add(1)
		defer func() {
			gw.metrics.RequestDurationHistogram.With("model", modelName).
				Observe(time.Since(start).Seconds())
		}()
	}

	r.Body = http.MaxBytesReader(w, r.Body, gw.cfg.MaxRequestBodySize)
	input, err := io.ReadAll(r.Body)
	if err != nil {
		if _, ok := err.(*http.MaxBytesError); ok {
			code := http.StatusRequestEntityTooLarge
			http.Error(w, http.StatusText(code), code)
			return
		}
		gw.failed(w, modelName, http.StatusBadRequest, err.Error())
		return
	}
	if len(input) > 0 && !json.Valid(input) {
		gw.failed(w, modelName, http.StatusBadRequest, "invalid json body")
		return
	}

	req := model.NewRequest(modelName, input)
	if err := gw.scheduler.Dispatch(r.Context(), req); err != nil {
		switch err {
		case scheduler.ErrModelNotFound:
			gw.failed(w, modelName, http.StatusNotFound, err.Error())
		default:
			gw.failed(w, modelName, http.StatusServiceUnavailable, err.Error())
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), gw.timeout)
	defer cancel()
	resp, err := req.Wait(ctx)
	if err != nil {
		gw.failed(w, modelName, http.StatusGatewayTimeout, "inference timed out")
		return
	}
	if resp.Error != "" {
		gw.failed(w, modelName, http.StatusBadGateway, resp.Error)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

func (gw *Gateway) failed(w http.ResponseWriter, modelName string, code int, message string) {
	if gw.metrics != nil && gw.metrics.Enabled {
		gw.metrics.RequestFailedCounter.With("model", modelName).Add(1)
	}
	response.JSON(w, code, ErrorResponse{Message: message})
}

// Start starts the HTTP server.
func (gw *Gateway) Start() {
	go func() {
		if err := gw.s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.S().Errorf("Failed to start Gateway : %v", err)
			os.Exit(1)
		}
	}()

	gw.log.Infof("[proxy] listening on %s", gw.cfg.Listen)
}

// Stop stops the HTTP server.
func (gw *Gateway) Stop() error {
	return gw.s.Shutdown(context.TODO())
}
