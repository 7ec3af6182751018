// Package config handles xaytool configuration loading and management.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Faultbox/xaytool/pkg/export"
)

// Config holds all tool settings.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig holds batch conversion settings.
type ConvertConfig struct {
	Format    string `yaml:"format"`     // gltf, glb or obj
	OutputDir string `yaml:"output_dir"` // Empty writes next to each input
	Workers   int    `yaml:"workers"`
	Strict    bool   `yaml:"strict"` // Reject dangling indices and bad section ranges
	Overwrite bool   `yaml:"overwrite"`
}

// ServerConfig holds HTTP conversion service settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	MaxBodyMB    int           `yaml:"max_body_mb"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // console or json
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			Format:    "glb",
			OutputDir: "",
			Workers:   runtime.NumCPU(),
			Strict:    false,
			Overwrite: false,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8740",
			MaxBodyMB:    256,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			LogFile:    "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := export.ForFormat(c.Convert.Format); err != nil {
		return fmt.Errorf("convert.format: %w", err)
	}
	if c.Convert.Workers < 1 {
		return fmt.Errorf("convert.workers must be at least 1, got %d", c.Convert.Workers)
	}
	if c.Server.MaxBodyMB < 1 {
		return fmt.Errorf("server.max_body_mb must be at least 1, got %d", c.Server.MaxBodyMB)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
