package config

import (
	"fmt"
	"net/url"
)

type ExecutorConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint" default:"http://localhost:8000"`
	Timeout  int64  `yaml:"timeout" json:"timeout" default:"60000"`
}

func (cfg ExecutorConfig) Validate() error {
	if cfg.Timeout < 0 {
		return fmt.Errorf("executor.timeout cannot be negative")
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return fmt.Errorf("invalid executor.endpoint: %s", cfg.Endpoint)
	}
	return nil
}
