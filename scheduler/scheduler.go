package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/modelq-io/modelq/config"
	"github.com/modelq-io/modelq/model"
	"github.com/modelq-io/modelq/pkg/metrics"
	"github.com/modelq-io/modelq/utils"
)

var (
	ErrModelNotFound      = errors.New("model not found")
	ErrSchedulerStarted   = errors.New("scheduler already started")
	ErrSchedulerStopped   = errors.New("scheduler already stopped")
	ErrSchedulerUnstarted = errors.New("scheduler not started")
)

// group is the set of instances serving one model.
type group struct {
	capacity  int
	instances []*Instance
	next      atomic.Uint32
}

// Scheduler owns the per-model instance groups and routes admitted
// requests onto instance queues.
type Scheduler struct {
	cfg     *config.SchedulerConfig
	log     *zap.SugaredLogger
	metrics *metrics.Metrics

	groups map[string]*group

	mux     sync.Mutex
	started bool
}

func NewScheduler(cfg *config.SchedulerConfig, executor Executor, m *metrics.Metrics) *Scheduler {
	s := &Scheduler{
		cfg:     cfg,
		log:     zap.S(),
		metrics: m,
		groups:  make(map[string]*group),
	}
	for _, mc := range cfg.Models {
		g := &group{capacity: mc.PayloadCapacity}
		opts := Options{
			MaxBatchSize:  mc.MaxBatchSize,
			MaxQueueDelay: utils.DurationMs(mc.MaxQueueDelay),
			Consumers:     mc.Consumers,
		}
		for n := 0; n < mc.Instances; n++ {
			name := fmt.Sprintf("%s:%d", mc.Name, n)
			g.instances = append(g.instances, NewInstance(name, mc.Name, opts, executor, m))
		}
		s.groups[mc.Name] = g
	}
	return s
}

func (s *Scheduler) Start() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.started {
		return ErrSchedulerStarted
	}
	s.started = true
	for name, g := range s.groups {
		for _, i := range g.instances {
			i.Start()
		}
		s.log.Infow("[scheduler] model started", "model", name, "instances", len(g.instances))
	}
	return nil
}

func (s *Scheduler) Stop() error {
	s.mux.Lock()
	if !s.started {
		s.mux.Unlock()
		return ErrSchedulerStopped
	}
	s.started = false
	s.mux.Unlock()

	for _, g := range s.groups {
		for _, i := range g.instances {
			i.Stop()
		}
	}
	s.log.Info("[scheduler] stopped")
	return nil
}

func (s *Scheduler) Running() bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.started
}

// WaitReady blocks until every instance has at least one idle consumer.
// It is called once at startup, before ingress opens, so the first
// requests never land on a queue nobody drains.
func (s *Scheduler) WaitReady() {
	for _, g := range s.groups {
		for _, i := range g.instances {
			i.Queue().WaitForConsumer()
		}
	}
}

// Dispatch wraps req in a batch and places it on an instance of its
// model. A request whose context is already done is not admitted.
func (s *Scheduler) Dispatch(ctx context.Context, req *model.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mux.Lock()
	if !s.started {
		s.mux.Unlock()
		return ErrSchedulerUnstarted
	}
	s.mux.Unlock()

	g, ok := s.groups[req.Model]
	if !ok {
		return ErrModelNotFound
	}

	batch := NewBatch(req.Model, g.capacity, req)
	return s.pick(g).Enqueue(batch)
}

func (s *Scheduler) pick(g *group) *Instance {
	if len(g.instances) == 1 {
		return g.instances[0]
	}
	if s.cfg.Policy == config.PolicyReadyFirst {
		for _, i := range g.instances {
			if i.Queue().WaitingConsumerCount() > 0 {
				return i
			}
		}
	}
	n := g.next.Add(1)
	return g.instances[int(n-1)%len(g.instances)]
}

// Stats reports per-instance queue depth and idle consumers.
func (s *Scheduler) Stats() map[string]interface{} {
	out := make(map[string]interface{})
	for name, g := range s.groups {
		for _, i := range g.instances {
			out[fmt.Sprintf("scheduler.%s.waiting_consumers", i.Name())] = i.Queue().WaitingConsumerCount()
		}
		out[fmt.Sprintf("scheduler.%s.instances", name)] = len(g.instances)
	}
	return out
}
