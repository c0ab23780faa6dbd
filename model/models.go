package model

import (
	"context"
	"encoding/json"

	"github.com/modelq-io/modelq/utils"
)

// Request is a single admitted inference request. The input is opaque
// to the queueing layer and forwarded to the model runtime as-is.
type Request struct {
	ID    string          `json:"id"`
	Model string          `json:"model"`
	Input json.RawMessage `json:"input"`

	done chan *Response
}

func NewRequest(model string, input json.RawMessage) *Request {
	return &Request{
		ID:    utils.UUID(),
		Model: model,
		Input: input,
		done:  make(chan *Response, 1),
	}
}

// Finish delivers the response to the waiter. The first response wins;
// later calls are dropped.
func (r *Request) Finish(resp *Response) {
	select {
	case r.done <- resp:
	default:
	}
}

// Wait blocks until the request has a response or ctx is done.
func (r *Request) Wait(ctx context.Context) (*Response, error) {
	select {
	case resp := <-r.done:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type Response struct {
	ID     string          `json:"id"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}
