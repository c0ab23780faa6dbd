package config

import (
	"fmt"
	"slices"

	"github.com/modelq-io/modelq/utils"
)

type SchedulerPolicy string

const (
	PolicyReadyFirst SchedulerPolicy = "ready_first"
	PolicyRoundRobin SchedulerPolicy = "round_robin"
)

// ModelConfig configures the instances and batching of one served model.
type ModelConfig struct {
	Name      string `yaml:"name" json:"name"`
	Instances int    `yaml:"instances" json:"instances"`
	Consumers int    `yaml:"consumers" json:"consumers"`

	// MaxBatchSize is the ceiling on the combined batch size after
	// merging. Values <= 1 disable merging.
	MaxBatchSize int `yaml:"max_batch_size" json:"max_batch_size"`

	// MaxQueueDelay is the per-payload wait budget in milliseconds.
	// 0 disables merging.
	MaxQueueDelay int64 `yaml:"max_queue_delay" json:"max_queue_delay"`

	// PayloadCapacity caps the requests a single payload accepts before
	// it is saturated. 0 inherits MaxBatchSize.
	PayloadCapacity int `yaml:"payload_capacity" json:"payload_capacity"`
}

type SchedulerConfig struct {
	Policy SchedulerPolicy `yaml:"policy" json:"policy" default:"ready_first"`
	Models []ModelConfig   `yaml:"models" json:"models"`
}

func (cfg *SchedulerConfig) PostProcess() error {
	for i := range cfg.Models {
		m := &cfg.Models[i]
		m.Instances = utils.DefaultIfZero(m.Instances, 1)
		m.Consumers = utils.DefaultIfZero(m.Consumers, 1)
		m.MaxBatchSize = utils.DefaultIfZero(m.MaxBatchSize, 8)
		m.PayloadCapacity = utils.DefaultIfZero(m.PayloadCapacity, m.MaxBatchSize)
	}
	return nil
}

func (cfg SchedulerConfig) Validate() error {
	if !slices.Contains([]SchedulerPolicy{PolicyReadyFirst, PolicyRoundRobin}, cfg.Policy) {
		return fmt.Errorf("invalid policy: %s", cfg.Policy)
	}
	if len(cfg.Models) == 0 {
		return fmt.Errorf("scheduler.models cannot be empty")
	}
	seen := make(map[string]bool)
	for _, m := range cfg.Models {
		if m.Name == "" {
			return fmt.Errorf("model name cannot be empty")
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate model: %s", m.Name)
		}
		seen[m.Name] = true
		if m.Instances < 1 {
			return fmt.Errorf("model %s: instances must be at least 1", m.Name)
		}
		if m.Consumers < 1 {
			return fmt.Errorf("model %s: consumers must be at least 1", m.Name)
		}
		if m.MaxBatchSize < 1 {
			return fmt.Errorf("model %s: max_batch_size must be at least 1", m.Name)
		}
		if m.MaxQueueDelay < 0 {
			return fmt.Errorf("model %s: max_queue_delay cannot be negative", m.Name)
		}
		if m.PayloadCapacity < 0 {
			return fmt.Errorf("model %s: payload_capacity cannot be negative", m.Name)
		}
	}
	return nil
}
