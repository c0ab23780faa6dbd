package status

import (
	"context"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/modelq-io/modelq/config"
	"github.com/modelq-io/modelq/status/health"
)

type Status struct {
	api *API
	cfg *config.StatusConfig
	s   *http.Server
	log *zap.SugaredLogger
}

type Options struct {
	Indicators []*health.Indicator
}

func NewStatus(cfg config.StatusConfig, opts Options) *Status {
	api := &API{
		startAt:        time.Now(),
		debugEndpoints: cfg.DebugEndpoints,
		indicators:     opts.Indicators,
	}
	s := &http.Server{
		Handler:      api.Handler(),
		Addr:         cfg.Listen,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	return &Status{
		api: api,
		cfg: &cfg,
		s:   s,
		log: zap.S(),
	}
}

func (s *Status) Start() error {
	go func() {
		if err := s.s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.S().Errorf("Failed to start status HTTP server: %v", err)
			os.Exit(1)
		}
	}()

	s.log.Infof("[status] listening on %s", s.cfg.Listen)
	if s.cfg.DebugEndpoints {
		s.log.Infow("[status] serving debug endpoints", "pprof", "/debug/pprof/")
	}
	return nil
}

func (s *Status) Stop(ctx context.Context) error {
	return s.s.Shutdown(ctx)
}
