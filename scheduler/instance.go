package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/modelq-io/modelq/pkg/metrics"
	"github.com/modelq-io/modelq/pkg/safe"
	"github.com/modelq-io/modelq/pkg/tracing"
)

var ErrInstanceStopped = errors.New("instance stopped")

// Executor runs a fully assembled batch against the model runtime.
type Executor interface {
	Execute(ctx context.Context, batch *Batch) error
}

// Options configures a single model instance.
type Options struct {
	MaxBatchSize  int
	MaxQueueDelay time.Duration
	Consumers     int
}

// Instance is one serving replica of a model: a queue plus a pool of
// consumer goroutines that dequeue, batch and execute. The instance's
// mutex is the external lock the queue contract requires.
type Instance struct {
	name  string
	model string
	opts  Options

	mu      sync.Mutex
	cond    *sync.Cond
	queue   *InstanceQueue
	stopped bool

	executor Executor
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger
	wg       sync.WaitGroup
}

func NewInstance(name, model string, opts Options, executor Executor, m *metrics.Metrics) *Instance {
	i := &Instance{
		name:     name,
		model:    model,
		opts:     opts,
		queue:    NewInstanceQueue(opts.MaxBatchSize, opts.MaxQueueDelay),
		executor: executor,
		metrics:  m,
		log:      zap.S(),
	}
	i.cond = sync.NewCond(&i.mu)
	return i
}

func (i *Instance) Name() string {
	return i.name
}

// Queue exposes the consumer-readiness side of the instance queue.
func (i *Instance) Queue() *InstanceQueue {
	return i.queue
}

// Start launches the consumer pool.
func (i *Instance) Start() {
	for n := 0; n < i.opts.Consumers; n++ {
		i.wg.Add(1)
		safe.Go(func() {
			defer i.wg.Done()
			i.consume()
		})
	}
	i.log.Debugf("[instance] %s: started %d consumers", i.name, i.opts.Consumers)
}

// Enqueue admits a batch. The queue-entry timestamp is stamped here so
// the wait budget starts at admission.
func (i *Instance) Enqueue(b *Batch) error {
	i.mu.Lock()
	if i.stopped {
		i.mu.Unlock()
		return ErrInstanceStopped
	}
	b.SetBatcherStartNs(nowNs())
	i.queue.Enqueue(b)
	pending := i.queue.Size()
	i.mu.Unlock()
	i.cond.Signal()

	if i.metrics != nil && i.metrics.Enabled {
		i.metrics.QueuePendingGauge.With("model", i.model).Set(float64(pending))
	}
	return nil
}

// Stop stops admission and blocks until the consumers have drained the
// queue and exited.
func (i *Instance) Stop() {
	i.mu.Lock()
	i.stopped = true
	i.mu.Unlock()
	i.cond.Broadcast()
	i.wg.Wait()
	i.log.Debugf("[instance] %s: stopped", i.name)
}

func (i *Instance) consume() {
	for {
		i.queue.IncrementConsumerCount()
		i.mu.Lock()
		for !i.stopped && i.queue.Empty() {
			i.cond.Wait()
		}
		if i.stopped && i.queue.Empty() {
			i.mu.Unlock()
			i.queue.DecrementConsumerCount()
			return
		}
		i.queue.DecrementConsumerCount()
		payload, merged := i.queue.Dequeue()
		pending := i.queue.Size()
		i.mu.Unlock()

		i.execute(payload, merged, pending)
	}
}

func (i *Instance) execute(payload Payload, merged []Payload, pending int) {
	batch, ok := payload.(*Batch)
	if !ok {
		i.log.Errorf("[instance] %s: dequeued unexpected payload type %T", i.name, payload)
		return
	}

	now := nowNs()
	if i.metrics != nil && i.metrics.Enabled {
		i.metrics.QueuePendingGauge.With("model", i.model).Set(float64(pending))
		i.metrics.QueueWaitDurationHistogram.With("model", i.model).
			Observe(time.Duration(now - batch.BatcherStartNs()).Seconds())
		i.metrics.BatchTotalCounter.With("model", i.model).Add(1)
		i.metrics.BatchMergedCounter.With("model", i.model).Add(float64(len(merged)))
		i.metrics.BatchSizeHistogram.With("model", i.model).Observe(float64(batch.BatchSize()))
	}

	ctx, span := tracing.Start(context.Background(), "scheduler.execute", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String("instance", i.name),
		attribute.String("model", i.model),
		attribute.Int("batch_size", batch.BatchSize()),
		attribute.Int("merged", len(merged)),
	)
	defer span.End()

	start := time.Now()
	err := i.executor.Execute(ctx, batch)
	if err != nil {
		i.log.Warnf("[instance] %s: batch %s failed: %v", i.name, batch.ID(), err)
	}
	batch.Finish(err)
	for _, p := range merged {
		if b, ok := p.(*Batch); ok {
			b.Finish(err)
		}
	}

	if i.metrics != nil && i.metrics.Enabled {
		i.metrics.BatchDurationHistogram.With("model", i.model).Observe(time.Since(start).Seconds())
	}
}
