package scheduler

import (
	"sync"
	"time"
)

// State is the lifecycle state of a payload.
type State int

const (
	// StatePending marks a payload that is waiting in a queue and may
	// still accept merges.
	StatePending State = iota
	// StateExecuting marks a payload committed to a consumer. A payload
	// enters this state at most once, under its ExecMutex, and is no
	// longer eligible for accumulation by anyone else.
	StateExecuting
	// StateReleased marks a payload whose execution has completed.
	StateReleased
)

// Payload is the unit of work an InstanceQueue holds: one or more
// logically grouped inference requests that can be folded together.
//
// State transitions and merge application are guarded by the payload's
// own ExecMutex, independent of any queue-level locking, so that an
// external observer (a cancellation reaper, for instance) can race a
// dequeue on a specific payload deterministically.
type Payload interface {
	// ExecMutex returns the payload's exclusive lock.
	ExecMutex() *sync.Mutex

	// SetState sets the lifecycle state. Callers hold ExecMutex.
	SetState(s State)

	// State returns the lifecycle state. Callers hold ExecMutex.
	State() State

	// IsSaturated reports whether the payload cannot accept further
	// merges.
	IsSaturated() bool

	// BatchSize returns the number of requests currently folded in.
	BatchSize() int

	// BatcherStartNs returns the monotonic time, in nanoseconds, at
	// which the payload began waiting in its queue.
	BatcherStartNs() int64

	// SetBatcherStartNs stamps the queue-entry time.
	SetBatcherStartNs(ns int64)

	// Merge folds other's requests into this payload. It either fully
	// applies or fails without effect.
	Merge(other Payload) error
}

var epoch = time.Now()

// nowNs is the monotonic clock BatcherStartNs values are measured on.
func nowNs() int64 {
	return int64(time.Since(epoch))
}
