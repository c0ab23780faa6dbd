// Package executor forwards assembled batches to the model runtime over
// HTTP.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/modelq-io/modelq/config"
	"github.com/modelq-io/modelq/model"
	"github.com/modelq-io/modelq/scheduler"
	"github.com/modelq-io/modelq/utils"
)

type inferInput struct {
	ID    string          `json:"id"`
	Input json.RawMessage `json:"input"`
}

type inferRequest struct {
	ID     string       `json:"id"`
	Inputs []inferInput `json:"inputs"`
}

type inferOutput struct {
	ID     string          `json:"id"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type inferResponse struct {
	Outputs []inferOutput `json:"outputs"`
}

// HTTPExecutor posts a batch to {endpoint}/v2/models/{model}/infer and
// routes per-request outputs back by request id.
type HTTPExecutor struct {
	endpoint string
	client   *http.Client
	log      *zap.SugaredLogger
}

func NewHTTPExecutor(cfg *config.ExecutorConfig) *HTTPExecutor {
	return &HTTPExecutor{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		client: &http.Client{
			Timeout:   utils.DurationMs(cfg.Timeout),
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: zap.S(),
	}
}

func (e *HTTPExecutor) Execute(ctx context.Context, batch *scheduler.Batch) error {
	requests := batch.Requests()
	body := inferRequest{
		ID:     batch.ID(),
		Inputs: make([]inferInput, 0, len(requests)),
	}
	for _, r := range requests {
		body.Inputs = append(body.Inputs, inferInput{ID: r.ID, Input: r.Input})
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to encode batch")
	}

	url := fmt.Sprintf("%s/v2/models/%s/infer", e.endpoint, batch.Model())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("unexpected status %d: %s", resp.StatusCode, b)
	}

	var out inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	outputs := make(map[string]inferOutput, len(out.Outputs))
	for _, o := range out.Outputs {
		outputs[o.ID] = o
	}
	for _, r := range requests {
		o, ok := outputs[r.ID]
		if !ok {
			e.log.Warnf("[executor] batch %s: no output for request %s", batch.ID(), r.ID)
			r.Finish(&model.Response{ID: r.ID, Error: "no output returned by runtime"})
			continue
		}
		r.Finish(&model.Response{ID: r.ID, Output: o.Output, Error: o.Error})
	}
	return nil
}
