// Package execdriver runs builds through an external bundler worker.
//
// The driver writes one configuration as JSON to the worker's stdin and
// reads one result as JSON from its stdout. A nonzero exit alongside a
// parseable result with errors is a failed compilation, which the caller
// inspects; anything else is a driver error.
package execdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bundlerig/bundlerig/pkg/bundler"
)

// Config holds driver configuration.
type Config struct {
	// Bin is the worker binary. Default: "bundlerig-worker".
	Bin string

	// Args are passed to every invocation.
	Args []string

	// Dir is the working directory for the worker ("" = process cwd).
	Dir string

	// Timeout is the max duration per build. Default: 10 minutes.
	Timeout time.Duration
}

// Driver shells out to an external bundler worker.
type Driver struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates a Driver.
func New(cfg Config, logger zerolog.Logger) *Driver {
	if cfg.Bin == "" {
		cfg.Bin = "bundlerig-worker"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Minute
	}

	return &Driver{
		cfg:    cfg,
		logger: logger.With().Str("component", "exec_driver").Logger(),
	}
}

// Build runs the worker for one configuration.
func (d *Driver) Build(ctx context.Context, cfg *bundler.Config) (*bundler.Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("exec driver invoked without a configuration")
	}

	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config for %s: %w", cfg.Name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.cfg.Bin, d.cfg.Args...)
	cmd.Dir = d.cfg.Dir
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	d.logger.Debug().
		Str("project", cfg.Name).
		Str("mode", cfg.Mode).
		Bool("vendor", cfg.VendorBundle).
		Msg("invoking bundler worker")

	start := time.Now()
	runErr := cmd.Run()

	res := &bundler.Result{}
	if err := json.Unmarshal(stdout.Bytes(), res); err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("bundler worker failed for %s: %w (stderr: %s)",
				cfg.Name, runErr, truncate(stderr.String(), 500))
		}
		return nil, fmt.Errorf("failed to parse worker output for %s: %w (stdout: %s)",
			cfg.Name, err, truncate(stdout.String(), 500))
	}
	res.Stats.Duration = time.Since(start)

	if runErr != nil && !res.HasErrors() {
		return nil, fmt.Errorf("bundler worker failed for %s: %w (stderr: %s)",
			cfg.Name, runErr, truncate(stderr.String(), 500))
	}

	d.logger.Info().
		Str("project", cfg.Name).
		Int("warnings", len(res.Stats.Warnings)).
		Int("errors", len(res.Stats.Errors)).
		Dur("duration", res.Stats.Duration).
		Msg("bundler worker finished")

	return res, nil
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
