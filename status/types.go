package status

import "github.com/modelq-io/modelq/pkg/stats"

type HealthResponse struct {
	Status     string                  `json:"status"`
	Components map[string]HealthResult `json:"components"`
}

type HealthResult struct {
	Status string  `json:"status"`
	Error  *string `json:"error,omitempty"`
}

type StatusResponse struct {
	UpTime    string       `json:"uptime"`
	Runtime   RuntimeStats `json:"runtime"`
	Memory    MemoryStats  `json:"memory"`
	Scheduler stats.Stats  `json:"scheduler"`
}

type RuntimeStats struct {
	Go         string `json:"go"`
	Goroutines int    `json:"goroutines"`
}

type MemoryStats struct {
	Alloc       string `json:"alloc"`
	Sys         string `json:"sys"`
	HeapObjects int64  `json:"heap_objects"`
	GC          int64  `json:"gc"`
}
