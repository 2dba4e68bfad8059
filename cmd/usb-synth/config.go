package main

import (
	"os"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Input string `yaml:"input"`
	Debug bool   `yaml:"debug"`
}

// LoadConfig reads an optional YAML file. A missing or unreadable file is
// not fatal, flags and defaults still apply.
func LoadConfig(filename string, logger *charmlog.Logger) Config {
	cfg := Config{}
	if filename == "" {
		return cfg
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		logger.Warn("can't read config", "file", filename, "err", err)
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Warn("bad config", "file", filename, "err", err)
	}
	return cfg
}
