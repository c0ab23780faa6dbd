package config

type StatusConfig struct {
	Listen         string `yaml:"listen" json:"listen" default:"127.0.0.1:9701"`
	DebugEndpoints bool   `yaml:"debug_endpoints" json:"debug_endpoints"`
}

func (cfg StatusConfig) Validate() error {
	return nil
}
