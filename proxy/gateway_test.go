package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelq-io/modelq/config"
	"github.com/modelq-io/modelq/model"
	"github.com/modelq-io/modelq/scheduler"
)

type echoExecutor struct{}

func (echoExecutor) Execute(ctx context.Context, b *scheduler.Batch) error {
	for _, r := range b.Requests() {
		r.Finish(&model.Response{ID: r.ID, Output: r.Input})
	}
	return nil
}

func setupGateway(t *testing.T) *httptest.Server {
	t.Helper()

	schedCfg := &config.SchedulerConfig{
		Policy: config.PolicyReadyFirst,
		Models: []config.ModelConfig{{Name: "llama", MaxBatchSize: 4}},
	}
	require.NoError(t, schedCfg.PostProcess())

	s := scheduler.NewScheduler(schedCfg, echoExecutor{}, nil)
	require.NoError(t, s.Start())
	s.WaitReady()
	t.Cleanup(func() { _ = s.Stop() })

	gw := NewGateway(&config.ProxyConfig{
		Listen:             "127.0.0.1:0",
		Timeout:            1000,
		MaxRequestBodySize: 1024,
	}, s, nil, nil)

	server := httptest.NewServer(gw.s.Handler)
	t.Cleanup(server.Close)
	return server
}

func TestGatewayInfer(t *testing.T) {
	server := setupGateway(t)

	resp, err := http.Post(server.URL+"/v1/models/llama/infer", "application/json",
		bytes.NewBufferString(`{"prompt":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out model.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.ID)
	assert.JSONEq(t, `{"prompt":"hi"}`, string(out.Output))
	assert.Empty(t, out.Error)
}

func TestGatewayIndex(t *testing.T) {
	server := setupGateway(t)

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out, "version")
	assert.Contains(t, out, "commit")
}

func TestGatewayUnknownModel(t *testing.T) {
	server := setupGateway(t)

	resp, err := http.Post(server.URL+"/v1/models/whisper/infer", "application/json",
		bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var out ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "model not found", out.Message)
}

func TestGatewayInvalidBody(t *testing.T) {
	server := setupGateway(t)

	resp, err := http.Post(server.URL+"/v1/models/llama/infer", "application/json",
		bytes.NewBufferString(`{not json`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGatewayBodyTooLarge(t *testing.T) {
	server := setupGateway(t)

	body := bytes.Repeat([]byte("a"), 2048)
	resp, err := http.Post(server.URL+"/v1/models/llama/infer", "application/json",
		bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
