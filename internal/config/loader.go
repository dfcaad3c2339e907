package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses an audit config file.
func Load(path string) (*AuditConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg AuditConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, errors.New("unsupported audit config version")
	}

	return &cfg, nil
}
