package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelq-io/modelq/config"
	"github.com/modelq-io/modelq/model"
	"github.com/modelq-io/modelq/scheduler"
)

func waitResponse(t *testing.T, r *model.Request) *model.Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := r.Wait(ctx)
	require.NoError(t, err)
	return resp
}

func TestHTTPExecutorExecute(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		var in inferRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))

		out := inferResponse{}
		for _, input := range in.Inputs {
			out.Outputs = append(out.Outputs, inferOutput{
				ID:     input.ID,
				Output: input.Input,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer server.Close()

	e := NewHTTPExecutor(&config.ExecutorConfig{Endpoint: server.URL, Timeout: 1000})

	r1 := model.NewRequest("llama", []byte(`{"prompt":"a"}`))
	r2 := model.NewRequest("llama", []byte(`{"prompt":"b"}`))
	batch := scheduler.NewBatch("llama", 8, r1, r2)

	require.NoError(t, e.Execute(context.Background(), batch))
	assert.Equal(t, "/v2/models/llama/infer", gotPath)

	resp1 := waitResponse(t, r1)
	assert.JSONEq(t, `{"prompt":"a"}`, string(resp1.Output))
	resp2 := waitResponse(t, r2)
	assert.JSONEq(t, `{"prompt":"b"}`, string(resp2.Output))
}

func TestHTTPExecutorMissingOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in inferRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))

		// answer only the first input
		out := inferResponse{Outputs: []inferOutput{{
			ID:     in.Inputs[0].ID,
			Output: in.Inputs[0].Input,
		}}}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer server.Close()

	e := NewHTTPExecutor(&config.ExecutorConfig{Endpoint: server.URL, Timeout: 1000})

	r1 := model.NewRequest("llama", []byte(`1`))
	r2 := model.NewRequest("llama", []byte(`2`))
	require.NoError(t, e.Execute(context.Background(), scheduler.NewBatch("llama", 8, r1, r2)))

	assert.Empty(t, waitResponse(t, r1).Error)
	assert.Equal(t, "no output returned by runtime", waitResponse(t, r2).Error)
}

func TestHTTPExecutorErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	e := NewHTTPExecutor(&config.ExecutorConfig{Endpoint: server.URL, Timeout: 1000})
	err := e.Execute(context.Background(), scheduler.NewBatch("llama", 8, model.NewRequest("llama", nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}
