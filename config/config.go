package config

import (
	"encoding/json"

	"github.com/creasty/defaults"
)

// Config Configuration
type Config struct {
	Log       LogConfig       `yaml:"log" json:"log"`
	Proxy     ProxyConfig     `yaml:"proxy" json:"proxy"`
	Status    StatusConfig    `yaml:"status" json:"status"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing" json:"tracing"`
	Executor  ExecutorConfig  `yaml:"executor" json:"executor"`
	Scheduler SchedulerConfig `yaml:"scheduler" json:"scheduler"`
}

func (cfg *Config) PostProcess() error {
	return cfg.Scheduler.PostProcess()
}

func (cfg Config) String() string {
	bytes, err := json.Marshal(cfg)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (cfg Config) Validate() error {
	if err := cfg.Log.Validate(); err != nil {
		return err
	}
	if err := cfg.Proxy.Validate(); err != nil {
		return err
	}
	if err := cfg.Status.Validate(); err != nil {
		return err
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return err
	}
	if err := cfg.Tracing.Validate(); err != nil {
		return err
	}
	if err := cfg.Executor.Validate(); err != nil {
		return err
	}
	if err := cfg.Scheduler.Validate(); err != nil {
		return err
	}
	return nil
}

func New() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}
