// Package runner executes planned builds against a bundler, recording
// outcomes in metrics and the build history store.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bundlerig/bundlerig/internal/digest"
	"github.com/bundlerig/bundlerig/internal/metrics"
	"github.com/bundlerig/bundlerig/internal/pipeline"
	"github.com/bundlerig/bundlerig/internal/store"
	"github.com/bundlerig/bundlerig/internal/vendorgate"
	"github.com/bundlerig/bundlerig/pkg/buildctx"
	"github.com/bundlerig/bundlerig/pkg/bundler"
)

// Runner drives planned builds sequentially, stopping at the first
// failure. Store and metrics are optional; a nil value disables that
// sink.
type Runner struct {
	bundler bundler.Bundler
	store   *store.Store
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu          sync.Mutex
	lastDigests map[string]string
}

// New creates a Runner.
func New(b bundler.Bundler, st *store.Store, m *metrics.Metrics, logger zerolog.Logger) *Runner {
	return &Runner{
		bundler:     b,
		store:       st,
		metrics:     m,
		logger:      logger.With().Str("component", "runner").Logger(),
		lastDigests: make(map[string]string),
	}
}

// Run executes the planned builds in order. Vendor bundles referenced by
// a build are ensured before the main build runs. In watch mode the run
// record stays open until Finish is called; otherwise it is closed here.
func (r *Runner) Run(ctx context.Context, bc *buildctx.Context, builds []pipeline.Build) error {
	r.startRun(bc)

	err := r.runAll(ctx, bc, builds)
	if !bc.Watch {
		r.finishRun(bc, err)
	}
	return err
}

// Rebuild reruns the planned builds for one watch iteration. Configs
// whose digest matches their last successful build are skipped.
func (r *Runner) Rebuild(ctx context.Context, bc *buildctx.Context, builds []pipeline.Build) error {
	if r.metrics != nil {
		r.metrics.RecordRebuild()
	}
	return r.runAll(ctx, bc, builds)
}

// Finish closes the run record of a watch session.
func (r *Runner) Finish(bc *buildctx.Context, runErr error) {
	r.finishRun(bc, runErr)
}

func (r *Runner) runAll(ctx context.Context, bc *buildctx.Context, builds []pipeline.Build) error {
	for i := range builds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runOne(ctx, bc, &builds[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, bc *buildctx.Context, b *pipeline.Build) error {
	res := b.Project

	if bc.CleanOutputs() {
		if err := cleanOutputDir(res.AbsOutDir); err != nil {
			return fmt.Errorf("cleaning outputs for %s: %w", res.Name, err)
		}
	}

	if b.Config.Vendor != nil && b.Vendor != nil {
		if err := r.ensureVendor(ctx, bc, b); err != nil {
			return err
		}
	}

	return r.buildConfig(ctx, bc, b.Config)
}

func (r *Runner) ensureVendor(ctx context.Context, bc *buildctx.Context, b *pipeline.Build) error {
	res := b.Project
	gate := vendorgate.New(b.Config.Vendor.ManifestPath, b.Vendor, r.bundler, r.logger)

	start := time.Now()
	decision, err := gate.Ensure(ctx)
	if r.metrics != nil {
		r.metrics.RecordGateDecision(res.Name, string(decision))
	}

	if err != nil {
		rec := &store.BuildResult{
			Project:    res.Name,
			Kind:       string(res.Kind),
			Vendor:     true,
			Status:     store.ResultFailed,
			DurationMS: time.Since(start).Milliseconds(),
		}
		var bfe *vendorgate.BuildFailedError
		if errors.As(err, &bfe) {
			rec.Errors = len(bfe.Errors)
		}
		r.record(bc, rec)
		return err
	}

	status := store.ResultSkipped
	if decision == vendorgate.DecisionBuilt {
		status = store.ResultSucceeded
	}
	r.record(bc, &store.BuildResult{
		Project:    res.Name,
		Kind:       string(res.Kind),
		Vendor:     true,
		Status:     status,
		DurationMS: time.Since(start).Milliseconds(),
	})
	return nil
}

func (r *Runner) buildConfig(ctx context.Context, bc *buildctx.Context, cfg *bundler.Config) error {
	dig, err := digest.Config(cfg)
	if err != nil {
		return fmt.Errorf("digesting config for %s: %w", cfg.Name, err)
	}

	key := digestKey(cfg)
	if !bc.CleanOutputs() && r.previousDigest(key) == dig {
		r.logger.Info().
			Str("project", cfg.Name).
			Str("digest", digest.Short(dig)).
			Msg("configuration unchanged, skipping build")
		if r.metrics != nil {
			r.metrics.RecordBuild(cfg.Name, store.ResultSkipped)
		}
		r.record(bc, &store.BuildResult{
			Project: cfg.Name,
			Kind:    cfg.Kind,
			Vendor:  cfg.VendorBundle,
			Digest:  digest.Short(dig),
			Status:  store.ResultSkipped,
		})
		return nil
	}

	start := time.Now()
	result, err := r.bundler.Build(ctx, cfg)
	dur := time.Since(start)

	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordBuild(cfg.Name, store.ResultFailed)
		}
		r.record(bc, &store.BuildResult{
			Project:    cfg.Name,
			Kind:       cfg.Kind,
			Vendor:     cfg.VendorBundle,
			Digest:     digest.Short(dig),
			Status:     store.ResultFailed,
			DurationMS: dur.Milliseconds(),
		})
		return fmt.Errorf("build for %s: %w", cfg.Name, err)
	}

	if r.metrics != nil {
		r.metrics.ObserveBuildDuration(cfg.Name, dur.Seconds())
	}

	if result.HasErrors() {
		for _, msg := range result.Stats.Errors {
			r.logger.Error().Str("project", cfg.Name).Msg(msg)
		}
		if r.metrics != nil {
			r.metrics.RecordBuild(cfg.Name, store.ResultFailed)
		}
		r.record(bc, &store.BuildResult{
			Project:    cfg.Name,
			Kind:       cfg.Kind,
			Vendor:     cfg.VendorBundle,
			Digest:     digest.Short(dig),
			Status:     store.ResultFailed,
			Warnings:   len(result.Stats.Warnings),
			Errors:     len(result.Stats.Errors),
			DurationMS: dur.Milliseconds(),
		})
		return fmt.Errorf("build for %s finished with %d error(s)", cfg.Name, len(result.Stats.Errors))
	}

	if result.HasWarnings() {
		for _, msg := range result.Stats.Warnings {
			r.logger.Warn().Str("project", cfg.Name).Msg(msg)
		}
	}

	r.rememberDigest(key, dig)
	if r.metrics != nil {
		r.metrics.RecordBuild(cfg.Name, store.ResultSucceeded)
	}
	r.record(bc, &store.BuildResult{
		Project:    cfg.Name,
		Kind:       cfg.Kind,
		Vendor:     cfg.VendorBundle,
		Digest:     digest.Short(dig),
		Status:     store.ResultSucceeded,
		Warnings:   len(result.Stats.Warnings),
		DurationMS: dur.Milliseconds(),
	})

	r.logger.Info().
		Str("project", cfg.Name).
		Str("mode", cfg.Mode).
		Int("warnings", len(result.Stats.Warnings)).
		Dur("duration", dur).
		Msg("build finished")
	return nil
}

func (r *Runner) startRun(bc *buildctx.Context) {
	if r.store == nil {
		return
	}
	run := &store.BuildRun{
		ID:        bc.RunID,
		Workspace: bc.Workspace,
		Mode:      bc.Mode(),
		Watch:     bc.Watch,
		Filter:    strings.Join(bc.Filter, ","),
		StartedAt: bc.StartedAt.UnixMilli(),
	}
	if err := r.store.StartRun(run); err != nil {
		r.logger.Warn().Err(err).Msg("failed to record run start")
	}
}

func (r *Runner) finishRun(bc *buildctx.Context, runErr error) {
	if r.store == nil {
		return
	}
	status := store.RunSucceeded
	msg := ""
	if runErr != nil {
		status = store.RunFailed
		msg = runErr.Error()
	}
	if err := r.store.FinishRun(bc.RunID, status, msg); err != nil {
		r.logger.Warn().Err(err).Msg("failed to record run finish")
	}
}

func (r *Runner) record(bc *buildctx.Context, rec *store.BuildResult) {
	if r.store == nil {
		return
	}
	rec.RunID = bc.RunID
	if err := r.store.RecordResult(rec); err != nil {
		r.logger.Warn().Err(err).Str("project", rec.Project).Msg("failed to record build result")
	}
}

func (r *Runner) previousDigest(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastDigests[key]
}

func (r *Runner) rememberDigest(key, dig string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastDigests[key] = dig
}

func digestKey(cfg *bundler.Config) string {
	if cfg.VendorBundle {
		return cfg.Name + "#vendor"
	}
	return cfg.Name
}

// cleanOutputDir empties the output directory without removing the
// directory itself. A missing directory is fine.
func cleanOutputDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
