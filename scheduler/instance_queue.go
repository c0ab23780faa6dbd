package scheduler

import (
	"sync"
	"time"
)

// InstanceQueue accumulates payloads for a single model instance and
// greedily folds overdue neighbors into an already-committed payload at
// dequeue time.
//
// The payload sequence itself is not synchronized. Callers must
// serialize Enqueue, Dequeue, Size and Empty for one InstanceQueue
// under a single external lock; Instance owns that lock. Only the
// consumer-readiness counter is safe for unguarded concurrent use.
type InstanceQueue struct {
	maxBatchSize  int
	maxQueueDelay time.Duration

	payloads []Payload

	consumerMu       sync.Mutex
	consumerCond     *sync.Cond
	waitingConsumers int
}

// NewInstanceQueue creates a queue. maxBatchSize is the ceiling on the
// combined batch size after merging; maxQueueDelay is the per-payload
// wait budget. maxBatchSize <= 1 or maxQueueDelay == 0 disable merging.
func NewInstanceQueue(maxBatchSize int, maxQueueDelay time.Duration) *InstanceQueue {
	q := &InstanceQueue{
		maxBatchSize:  maxBatchSize,
		maxQueueDelay: maxQueueDelay,
	}
	q.consumerCond = sync.NewCond(&q.consumerMu)
	return q
}

func (q *InstanceQueue) Size() int {
	return len(q.payloads)
}

func (q *InstanceQueue) Empty() bool {
	return len(q.payloads) == 0
}

func (q *InstanceQueue) Enqueue(p Payload) {
	q.payloads = append(q.payloads, p)
}

// Dequeue removes the oldest payload, commits it to the calling
// consumer, and opportunistically absorbs queued neighbors whose wait
// budget has already expired, front to back, up to the batch-size
// ceiling. It returns the committed payload and the absorbed ones.
//
// Absorption never delays the committed payload and stops at the first
// payload it cannot absorb; there is no best-fit search, no retry, and
// no rollback of payloads absorbed earlier in the same call. A payload
// claimed for absorption keeps its executing state even when the merge
// fails and it stays queued.
//
// Dequeue panics if the queue is empty.
func (q *InstanceQueue) Dequeue() (Payload, []Payload) {
	payload := q.payloads[0]
	q.payloads[0] = nil
	q.payloads = q.payloads[1:]

	var merged []Payload

	mu := payload.ExecMutex()
	mu.Lock()
	defer mu.Unlock()
	payload.SetState(StateExecuting)

	if len(q.payloads) == 0 || q.maxQueueDelay <= 0 || q.maxBatchSize <= 1 || payload.IsSaturated() {
		return payload, merged
	}

	for {
		now := nowNs()
		batchSize := payload.BatchSize()

		if len(q.payloads) == 0 {
			break
		}
		front := q.payloads[0]
		if front.IsSaturated() {
			break
		}
		if now-front.BatcherStartNs() <= q.maxQueueDelay.Nanoseconds() {
			// not overdue yet; leave it for its own dequeue
			break
		}

		fmu := front.ExecMutex()
		fmu.Lock()
		front.SetState(StateExecuting)
		if batchSize+front.BatchSize() > q.maxBatchSize {
			fmu.Unlock()
			break
		}
		if err := payload.Merge(front); err != nil {
			fmu.Unlock()
			break
		}
		fmu.Unlock()

		merged = append(merged, front)
		q.payloads[0] = nil
		q.payloads = q.payloads[1:]
	}

	return payload, merged
}

// IncrementConsumerCount declares one more idle consumer and wakes a
// waiter blocked in WaitForConsumer.
func (q *InstanceQueue) IncrementConsumerCount() {
	q.consumerMu.Lock()
	q.waitingConsumers++
	q.consumerMu.Unlock()
	q.consumerCond.Signal()
}

// DecrementConsumerCount retracts one idle consumer. Pairing decrements
// with prior increments is the caller's responsibility.
func (q *InstanceQueue) DecrementConsumerCount() {
	q.consumerMu.Lock()
	q.waitingConsumers--
	q.consumerMu.Unlock()
	q.consumerCond.Signal()
}

// WaitForConsumer blocks until at least one consumer is idle.
func (q *InstanceQueue) WaitForConsumer() {
	q.consumerMu.Lock()
	defer q.consumerMu.Unlock()
	for q.waitingConsumers <= 0 {
		q.consumerCond.Wait()
	}
}

func (q *InstanceQueue) WaitingConsumerCount() int {
	q.consumerMu.Lock()
	defer q.consumerMu.Unlock()
	return q.waitingConsumers
}
