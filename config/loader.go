package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file into cfg. Defaults applied
// by New are kept for keys the file does not set.
func Load(filename string, cfg *Config) error {
	if filename == "" {
		return cfg.PostProcess()
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return LoadContent(content, cfg)
}

func LoadContent(content []byte, cfg *Config) error {
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return err
	}
	return cfg.PostProcess()
}
