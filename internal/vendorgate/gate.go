// Package vendorgate decides, immediately before a build, whether a
// project's vendor bundle must be (re)built. The presence of the vendor
// manifest on disk is the sole signal: a readable manifest means the
// prebuilt bundle is usable, anything else forces a vendor build before
// the dependent main build may proceed.
package vendorgate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bundlerig/bundlerig/pkg/bundler"
)

// Decision is the outcome of one gate pass.
type Decision string

const (
	// DecisionSkip means the manifest was present and no build ran.
	DecisionSkip Decision = "skip"
	// DecisionBuilt means the vendor bundle was built successfully.
	DecisionBuilt Decision = "built"
	// DecisionFailed accompanies a non-nil error.
	DecisionFailed Decision = "failed"
)

// BuildFailedError reports a vendor build whose output contained
// structural errors. Warnings never produce it.
type BuildFailedError struct {
	Project string
	Errors  []string
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("vendor build for %q failed with %d error(s): %s",
		e.Project, len(e.Errors), strings.Join(e.Errors, "; "))
}

// Gate guards one vendor-bundle-eligible project. Create one per project
// per run and call Ensure from the pre-build hooks. Ensure does not
// synchronize concurrent calls; callers must not overlap hook
// invocations for the same project.
type Gate struct {
	manifestPath string
	cfg          *bundler.Config
	bundler      bundler.Bundler
	logger       zerolog.Logger
}

// New creates a gate for the vendor configuration cfg whose manifest is
// expected at manifestPath.
func New(manifestPath string, cfg *bundler.Config, b bundler.Bundler, logger zerolog.Logger) *Gate {
	return &Gate{
		manifestPath: manifestPath,
		cfg:          cfg,
		bundler:      b,
		logger: logger.With().
			Str("component", "vendor_gate").
			Str("project", cfg.Name).
			Logger(),
	}
}

// Ensure blocks until the vendor bundle is known to be usable. A manifest
// present as a regular file skips the build outright; a missing manifest,
// or any stat failure, triggers a vendor build through the bundler. A
// build that reports structural errors fails the gate, and the caller
// must abort the dependent main build. Warnings are tolerated.
func (g *Gate) Ensure(ctx context.Context) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return DecisionFailed, err
	}

	fi, err := os.Stat(g.manifestPath)
	if err == nil && fi.Mode().IsRegular() {
		g.logger.Debug().
			Str("manifest", g.manifestPath).
			Msg("vendor manifest present, skipping vendor build")
		return DecisionSkip, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		g.logger.Warn().
			Err(err).
			Str("manifest", g.manifestPath).
			Msg("vendor manifest unreadable, rebuilding")
	} else {
		g.logger.Info().
			Str("manifest", g.manifestPath).
			Msg("vendor manifest missing, building vendor bundle")
	}

	res, err := g.bundler.Build(ctx, g.cfg)
	if err != nil {
		return DecisionFailed, fmt.Errorf("vendor build for %q: %w", g.cfg.Name, err)
	}
	if res.HasErrors() {
		return DecisionFailed, &BuildFailedError{
			Project: g.cfg.Name,
			Errors:  res.Stats.Errors,
		}
	}
	if res.HasWarnings() {
		g.logger.Warn().
			Strs("warnings", res.Stats.Warnings).
			Msg("vendor build completed with warnings")
	}
	return DecisionBuilt, nil
}
