package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds process-level configuration loaded from environment
// variables. These tune the tool's own surface (logging, status server,
// history database); the build environment itself travels separately in
// BUNDLERIG_ENV.
type Settings struct {
	LogLevel  string `envconfig:"BUNDLERIG_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"BUNDLERIG_LOG_FORMAT" default:"auto"` // auto, json, console

	// Watch-mode status server listen address.
	StatusAddr string `envconfig:"BUNDLERIG_STATUS_ADDR" default:"127.0.0.1:9321"`

	// Build history database path. Empty disables history recording.
	HistoryPath string `envconfig:"BUNDLERIG_HISTORY_PATH"`

	// Capacity of the entry parser's stat cache.
	EntryCacheSize int `envconfig:"BUNDLERIG_ENTRY_CACHE_SIZE" default:"512"`

	// Bundler worker binary invoked for each configuration, and how
	// long one build may take.
	WorkerBin     string        `envconfig:"BUNDLERIG_WORKER" default:"bundlerig-worker"`
	WorkerTimeout time.Duration `envconfig:"BUNDLERIG_WORKER_TIMEOUT" default:"10m"`
}

// Load reads settings from environment variables.
func Load() (*Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return &s, nil
}
