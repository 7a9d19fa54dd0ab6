// Package config loads server configuration from an optional YAML file
// (CLI flags, applied by cmd/macmcp, take precedence; environment
// variables are not read), and
// supports hot-reloading the subset of fields safe to change while a
// session is live.
package config

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds the server's tunables: platform deadline, change detection
// delay/cap, default/hard max depth, and filter limit.
type Config struct {
	LogLevel string `yaml:"log_level"`
	LogFile string `yaml:"log_file"`

	DefaultMaxDepth int `yaml:"default_max_depth"`
	HardMaxDepth int `yaml:"hard_max_depth"`

	DefaultFilterLimit int `yaml:"default_filter_limit"`
	HardFilterLimit int `yaml:"hard_filter_limit"`

	ChangeDetectionDelayMS int `yaml:"change_detection_delay_ms"`
	ChangeDetectionCapMS int `yaml:"change_detection_cap_ms"`
	DiffCategoryCap int `yaml:"diff_category_cap"`

	PlatformCallDeadlineMS int `yaml:"platform_call_deadline_ms"`
}

// Default returns the server's baseline tunables: max_depth=150/250,
// filter limit=100/1000, diff category cap=64, change-detection
// delay=200ms/cap=5s, platform call deadline=5s.
func Default() Config {
	return Config{
		LogLevel: "info",
		DefaultMaxDepth: 150,
		HardMaxDepth: 250,
		DefaultFilterLimit: 100,
		HardFilterLimit: 1000,
		ChangeDetectionDelayMS: 200,
		ChangeDetectionCapMS: 5000,
		DiffCategoryCap: 64,
		PlatformCallDeadlineMS: 5000,
	}
}

// Load reads path (if non-empty and present) over the defaults. A missing
// file is not an error — an unconfigured install runs on defaults alone.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Live is a goroutine-safe holder of the active Config, updated by the
// fsnotify watcher in watcher.go and read by the rest of the server.
type Live struct {
	mu sync.RWMutex
	cfg Config
}

func NewLive(cfg Config) *Live {
	return &Live{cfg: cfg}
}

func (l *Live) Get() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

func (l *Live) Set(cfg Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg = cfg
}
