package scheduler

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/modelq-io/modelq/model"
	"github.com/modelq-io/modelq/utils"
)

var (
	ErrIncompatiblePayload = errors.New("incompatible payload type")
	ErrModelMismatch       = errors.New("payload model mismatch")
	ErrBatchReleased       = errors.New("batch already released")
)

// Batch is the concrete payload: a group of requests bound for one
// model. Absorbing another batch moves its requests into this one, so a
// single executor call answers every request the batch ever carried.
type Batch struct {
	id       string
	model    string
	capacity int

	mu             sync.Mutex
	state          State
	requests       []*model.Request
	batcherStartNs int64

	once sync.Once
}

// NewBatch creates a batch for the named model. capacity caps the
// number of requests the batch will accept through merging; 0 means
// unbounded.
func NewBatch(modelName string, capacity int, requests ...*model.Request) *Batch {
	return &Batch{
		id:       utils.KSUID(),
		model:    modelName,
		capacity: capacity,
		requests: requests,
	}
}

func (b *Batch) ID() string {
	return b.id
}

func (b *Batch) Model() string {
	return b.model
}

// Requests returns the requests currently folded into the batch.
func (b *Batch) Requests() []*model.Request {
	return b.requests
}

func (b *Batch) ExecMutex() *sync.Mutex {
	return &b.mu
}

func (b *Batch) SetState(s State) {
	b.state = s
}

func (b *Batch) State() State {
	return b.state
}

func (b *Batch) IsSaturated() bool {
	return b.capacity > 0 && len(b.requests) >= b.capacity
}

func (b *Batch) BatchSize() int {
	return len(b.requests)
}

func (b *Batch) BatcherStartNs() int64 {
	return b.batcherStartNs
}

func (b *Batch) SetBatcherStartNs(ns int64) {
	b.batcherStartNs = ns
}

// Merge moves other's requests into b. Both batches must target the
// same model and neither may be released. On failure neither batch is
// modified.
func (b *Batch) Merge(other Payload) error {
	o, ok := other.(*Batch)
	if !ok {
		return ErrIncompatiblePayload
	}
	if o.model != b.model {
		return ErrModelMismatch
	}
	if b.state == StateReleased || o.state == StateReleased {
		return ErrBatchReleased
	}
	b.requests = append(b.requests, o.requests...)
	o.requests = nil
	return nil
}

// Finish marks the batch released. A non-nil err fans out as the
// response to every request still attached. Finish is idempotent.
func (b *Batch) Finish(err error) {
	b.once.Do(func() {
		b.mu.Lock()
		b.state = StateReleased
		requests := b.requests
		b.mu.Unlock()

		if err == nil {
			return
		}
		for _, r := range requests {
			r.Finish(&model.Response{ID: r.ID, Error: err.Error()})
		}
	})
}
