package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAuxStreams = 2
	DefaultMaxStreams = 64
	DefaultLogLevel   = "info"
)

type Config struct {
	// Runtime selects the device runtime: "auto", "cuda" or "sim".
	Runtime    string    `yaml:"runtime"`
	AuxStreams int       `yaml:"aux_streams"`
	LogLevel   string    `yaml:"log_level"`
	Sim        SimConfig `yaml:"sim"`
}

type SimConfig struct {
	MaxStreams int `yaml:"max_streams"`
}

func DefaultConfig() *Config {
	return &Config{
		Runtime:    "auto",
		AuxStreams: DefaultAuxStreams,
		LogLevel:   DefaultLogLevel,
		Sim: SimConfig{
			MaxStreams: DefaultMaxStreams,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Runtime {
	case "auto", "cuda", "sim":
	default:
		return fmt.Errorf("unknown runtime %q (want auto, cuda or sim)", c.Runtime)
	}
	if c.AuxStreams < 0 {
		return fmt.Errorf("aux_streams must be non-negative, got %d", c.AuxStreams)
	}
	if c.Sim.MaxStreams <= 0 {
		return fmt.Errorf("sim.max_streams must be positive, got %d", c.Sim.MaxStreams)
	}
	return nil
}
