package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk YAML configuration for h2wsserver, following
// the teacher's options-struct-plus-defaults() idiom but loaded once at
// startup instead of being assembled in code.
type Config struct {
	Addr     string `yaml:"addr"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	HTTP2 struct {
		MaxConcurrentStreams uint32 `yaml:"max_concurrent_streams"`
		InitialWindowSize    uint32 `yaml:"initial_window_size"`
		MaxFrameSize         uint32 `yaml:"max_frame_size"`
		HeaderTableSize      uint32 `yaml:"header_table_size"`
	} `yaml:"http2"`

	WebSocket struct {
		Addr          string `yaml:"addr"`
		Path          string `yaml:"path"`
		IdleTimeoutMs int64  `yaml:"idle_timeout_ms"`
	} `yaml:"websocket"`
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = ":8443"
	}
	if c.WebSocket.Path == "" {
		c.WebSocket.Path = "/ws"
	}
	if c.WebSocket.Addr == "" {
		c.WebSocket.Addr = ":8080"
	}
}

func loadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	cfg.defaults()

	return &cfg, nil
}
