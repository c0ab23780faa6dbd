package config

import (
	"fmt"
	"slices"
)

type OpentelemetryTracing struct {
	Protocol OtlpProtocol `yaml:"protocol" json:"protocol" default:"http/protobuf"`
	Endpoint string       `yaml:"endpoint" json:"endpoint" default:"http://localhost:4318/v1/traces"`
}

func (cfg OpentelemetryTracing) Validate() error {
	if !slices.Contains([]OtlpProtocol{OtlpProtocolGRPC, OtlpProtocolHTTP}, cfg.Protocol) {
		return fmt.Errorf("invalid protocol: %s", cfg.Protocol)
	}
	return nil
}

type TracingConfig struct {
	Enabled       bool                 `yaml:"enabled" json:"enabled"`
	SamplingRate  float64              `yaml:"sampling_rate" json:"sampling_rate" default:"1.0"`
	Opentelemetry OpentelemetryTracing `yaml:"opentelemetry" json:"opentelemetry"`
}

func (cfg TracingConfig) Validate() error {
	if cfg.SamplingRate < 0 || cfg.SamplingRate > 1 {
		return fmt.Errorf("sampling_rate must be in the range [0, 1]")
	}
	return cfg.Opentelemetry.Validate()
}
