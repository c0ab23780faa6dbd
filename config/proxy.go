package config

import (
	"fmt"
)

type ProxyConfig struct {
	Listen             string `yaml:"listen" json:"listen" default:"0.0.0.0:9700"`
	Timeout            int64  `yaml:"timeout" json:"timeout" default:"60000"`
	MaxRequestBodySize int64  `yaml:"max_request_body_size" json:"max_request_body_size" default:"1048576"`
}

func (cfg ProxyConfig) Validate() error {
	if cfg.Timeout < 0 {
		return fmt.Errorf("proxy.timeout cannot be negative")
	}
	if cfg.MaxRequestBodySize < 0 {
		return fmt.Errorf("proxy.max_request_body_size cannot be negative")
	}
	return nil
}
