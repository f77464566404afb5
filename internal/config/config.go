package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dictkv/dictkv/internal/protocol"
)

// Duration wraps time.Duration so YAML accepts values like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Store backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Config holds all server configuration.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"` // empty disables the metrics endpoint
	DataDir     string `yaml:"data_dir"`
	BufferSize  int    `yaml:"buffer_size"`
	Backend     string `yaml:"backend"`

	// Concurrent serves each connection on its own goroutine instead of the
	// default one-at-a-time accept loop.
	Concurrent  bool     `yaml:"concurrent"`
	IdleTimeout Duration `yaml:"idle_timeout"` // zero means no timeout

	// AllowPathKeys restores raw key-as-path behavior for the file backend,
	// including directory traversal.
	AllowPathKeys bool `yaml:"allow_path_keys"`

	// WriteLog enables the append-only mutation log for the memory backend.
	WriteLog bool `yaml:"write_log"`
	Fsync    bool `yaml:"fsync"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr: "127.0.0.1:5000",
		DataDir:    ".",
		BufferSize: protocol.DefaultFrameSize,
		Backend:    BackendFile,
		LogLevel:   "info",
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.BufferSize < protocol.MinFrameSize {
		return fmt.Errorf("buffer_size %d below minimum frame size %d", c.BufferSize, protocol.MinFrameSize)
	}
	switch c.Backend {
	case BackendFile, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.WriteLog && c.Backend != BackendMemory {
		return fmt.Errorf("write_log requires the memory backend")
	}
	return nil
}
