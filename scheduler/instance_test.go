package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelq-io/modelq/model"
)

type captureExecutor struct {
	mu    sync.Mutex
	sizes []int

	entered chan struct{}
	gate    chan struct{}
	err     error
}

func (e *captureExecutor) Execute(ctx context.Context, b *Batch) error {
	if e.entered != nil {
		e.entered <- struct{}{}
	}
	if e.gate != nil {
		<-e.gate
	}
	e.mu.Lock()
	e.sizes = append(e.sizes, b.BatchSize())
	e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	for _, r := range b.Requests() {
		r.Finish(&model.Response{ID: r.ID, Output: r.Input})
	}
	return nil
}

func (e *captureExecutor) batchSizes() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.sizes...)
}

func TestInstanceExecutesBatch(t *testing.T) {
	executor := &captureExecutor{}
	i := NewInstance("llama:0", "llama", Options{
		MaxBatchSize:  4,
		MaxQueueDelay: 0,
		Consumers:     2,
	}, executor, nil)
	i.Start()
	defer i.Stop()

	req := model.NewRequest("llama", []byte(`{"prompt":"hi"}`))
	require.NoError(t, i.Enqueue(NewBatch("llama", 4, req)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := req.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, req.ID, resp.ID)
	assert.JSONEq(t, `{"prompt":"hi"}`, string(resp.Output))
}

func TestInstanceMergesOverdueBatches(t *testing.T) {
	executor := &captureExecutor{
		entered: make(chan struct{}, 8),
		gate:    make(chan struct{}),
	}
	i := NewInstance("llama:0", "llama", Options{
		MaxBatchSize:  8,
		MaxQueueDelay: time.Millisecond,
		Consumers:     1,
	}, executor, nil)
	i.Start()

	r1 := model.NewRequest("llama", []byte(`1`))
	require.NoError(t, i.Enqueue(NewBatch("llama", 8, r1)))

	// wait until the single consumer is parked inside Execute, then
	// queue two more batches and let their wait budget expire
	select {
	case <-executor.entered:
	case <-time.After(time.Second):
		t.Fatal("executor was not entered")
	}
	r2 := model.NewRequest("llama", []byte(`2`))
	r3 := model.NewRequest("llama", []byte(`3`))
	require.NoError(t, i.Enqueue(NewBatch("llama", 8, r2)))
	require.NoError(t, i.Enqueue(NewBatch("llama", 8, r3)))
	time.Sleep(20 * time.Millisecond)
	close(executor.gate)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, r := range []*model.Request{r1, r2, r3} {
		resp, err := r.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, r.ID, resp.ID)
	}
	i.Stop()

	assert.Equal(t, []int{1, 2}, executor.batchSizes())
}

func TestInstanceErrorFansOut(t *testing.T) {
	executor := &captureExecutor{err: ErrInstanceStopped}
	i := NewInstance("llama:0", "llama", Options{
		MaxBatchSize:  4,
		MaxQueueDelay: 0,
		Consumers:     1,
	}, executor, nil)
	i.Start()
	defer i.Stop()

	req := model.NewRequest("llama", nil)
	require.NoError(t, i.Enqueue(NewBatch("llama", 4, req)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := req.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, ErrInstanceStopped.Error(), resp.Error)
}

func TestInstanceDrainsOnStop(t *testing.T) {
	executor := &captureExecutor{}
	i := NewInstance("llama:0", "llama", Options{
		MaxBatchSize:  4,
		MaxQueueDelay: 0,
		Consumers:     1,
	}, executor, nil)
	i.Start()

	requests := make([]*model.Request, 5)
	for n := range requests {
		requests[n] = model.NewRequest("llama", nil)
		require.NoError(t, i.Enqueue(NewBatch("llama", 4, requests[n])))
	}

	i.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, r := range requests {
		_, err := r.Wait(ctx)
		require.NoError(t, err)
	}
	assert.Len(t, executor.batchSizes(), 5)
}

func TestInstanceEnqueueAfterStop(t *testing.T) {
	i := NewInstance("llama:0", "llama", Options{
		MaxBatchSize:  4,
		MaxQueueDelay: 0,
		Consumers:     1,
	}, &captureExecutor{}, nil)
	i.Start()
	i.Stop()

	err := i.Enqueue(NewBatch("llama", 4, model.NewRequest("llama", nil)))
	assert.Equal(t, ErrInstanceStopped, err)
}
