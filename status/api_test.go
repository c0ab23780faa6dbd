package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelq-io/modelq/status/health"
)

func TestIndex(t *testing.T) {
	api := &API{startAt: time.Now()}
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.UpTime)
	assert.NotEmpty(t, out.Runtime.Go)
	assert.Greater(t, out.Runtime.Goroutines, 0)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name         string
		indicators   []*health.Indicator
		expectedCode int
		expectedBody HealthResponse
	}{
		{
			name:         "no indicators",
			expectedCode: http.StatusOK,
			expectedBody: HealthResponse{
				Status:     health.StatusUp,
				Components: map[string]HealthResult{},
			},
		},
		{
			name: "all up",
			indicators: []*health.Indicator{
				health.NewIndicator("runtime", func() error { return nil }),
			},
			expectedCode: http.StatusOK,
			expectedBody: HealthResponse{
				Status: health.StatusUp,
				Components: map[string]HealthResult{
					"runtime": {Status: health.StatusUp},
				},
			},
		},
		{
			name: "one down",
			indicators: []*health.Indicator{
				health.NewIndicator("runtime", func() error { return nil }),
				health.NewIndicator("scheduler", func() error { return errors.New("not running") }),
			},
			expectedCode: http.StatusServiceUnavailable,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			api := &API{startAt: time.Now(), indicators: test.indicators}
			server := httptest.NewServer(api.Handler())
			defer server.Close()

			resp, err := http.Get(server.URL + "/health")
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, test.expectedCode, resp.StatusCode)
			var out HealthResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			if test.expectedBody.Status != "" {
				assert.Equal(t, test.expectedBody, out)
			}
		})
	}
}

func TestDebugEndpoints(t *testing.T) {
	api := &API{startAt: time.Now(), debugEndpoints: true}
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/debug/pprof/cmdline")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	disabled := &API{startAt: time.Now()}
	server2 := httptest.NewServer(disabled.Handler())
	defer server2.Close()

	resp2, err := http.Get(server2.URL + "/debug/pprof/cmdline")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
