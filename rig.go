package bundlerig

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/bundlerig/bundlerig/internal/entry"
	"github.com/bundlerig/bundlerig/internal/metrics"
	"github.com/bundlerig/bundlerig/internal/pipeline"
	"github.com/bundlerig/bundlerig/internal/project"
	"github.com/bundlerig/bundlerig/internal/runner"
	"github.com/bundlerig/bundlerig/internal/status"
	"github.com/bundlerig/bundlerig/internal/store"
	"github.com/bundlerig/bundlerig/pkg/buildctx"
	"github.com/bundlerig/bundlerig/pkg/bundler"
	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

// Options parameterizes one invocation.
type Options struct {
	// ConfigPath locates the configuration document. Required. The
	// document's directory becomes the workspace root against which
	// relative project roots resolve.
	ConfigPath string

	// Env is the active environment. When nil it is read from the
	// BUNDLERIG_ENV process variable; unset there too means an empty
	// default environment.
	Env *buildctx.Environment

	// CLIDriven marks the invocation as coming from a wrapping CLI.
	// CLI-driven runs ignore the environment's options sub-object;
	// programmatic runs consume it for any field left unset here.
	CLIDriven bool

	// Filter restricts the run to the named projects, plus the "apps"
	// and "libs" group keywords.
	Filter []string

	// Clean wipes each project's output directory before its build.
	Clean bool

	// Verbose forces debug-level logging and detailed build stats.
	Verbose bool

	// Progress asks the bundler for progress reporting.
	Progress bool

	// Bundler executes the resolved configurations. Required for Run
	// and RunWatch, unused by ResolveConfigs.
	Bundler bundler.Bundler

	// Logger receives all pipeline and build logging. The zero value
	// discards everything.
	Logger zerolog.Logger

	// HistoryPath names the SQLite build-history database. Empty
	// disables history recording.
	HistoryPath string

	// StatusAddr is the listen address for the watch-mode status
	// server. Empty disables the server.
	StatusAddr string

	// EntryCacheSize caps the entry parser's stat cache. Zero or
	// negative selects the default.
	EntryCacheSize int
}

// session is the assembled state behind one facade call.
type session struct {
	opts   Options
	bc     *buildctx.Context
	parser *entry.Parser
	pipe   *pipeline.Pipeline
	logger zerolog.Logger
}

func newSession(opts Options) (*session, error) {
	logger := opts.Logger
	if opts.Verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	env := opts.Env
	if env == nil {
		var err error
		if env, err = buildctx.FromEnv(); err != nil {
			return nil, err
		}
	}

	workspace, err := filepath.Abs(filepath.Dir(opts.ConfigPath))
	if err != nil {
		return nil, rigerr.NewInternal("resolving workspace root: %v", err)
	}

	filter := opts.Filter
	clean := opts.Clean
	if !opts.CLIDriven && env.Options != nil {
		if len(filter) == 0 {
			filter = env.Options.Filter
		}
		if !clean && env.Options.Clean != nil {
			clean = *env.Options.Clean
		}
	}

	bc := buildctx.New(workspace, env)
	bc.Filter = filter
	bc.Verbose = opts.Verbose
	bc.SetProgress(opts.Progress)
	bc.SetCleanOutputs(clean)

	parser := entry.NewParser(opts.EntryCacheSize, logger)
	return &session{
		opts:   opts,
		bc:     bc,
		parser: parser,
		pipe:   pipeline.New(parser, logger),
		logger: logger,
	}, nil
}

// plan loads the document and resolves it into this invocation's builds.
func (s *session) plan() ([]pipeline.Build, error) {
	doc, err := project.Load(s.opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return s.pipe.Plan(s.bc, doc)
}

// replan drops cached stat results first, so entries added or removed on
// disk since the previous pass are seen.
func (s *session) replan() ([]pipeline.Build, error) {
	s.parser.ClearStatCache()
	return s.plan()
}

// openHistory opens the build-history store when configured. Store
// failures disable history for the run rather than failing it.
func (s *session) openHistory(ctx context.Context) *store.Store {
	if s.opts.HistoryPath == "" {
		return nil
	}
	st, err := store.New(s.opts.HistoryPath, s.logger)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.opts.HistoryPath).Msg("build history disabled")
		return nil
	}
	if err := st.RunRetention(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to prune build history")
	}
	return st
}

// ResolveConfigs resolves the document into final bundler configurations
// without building anything: one configuration per surviving project,
// libs first, then apps, each in declared order. Zero surviving projects
// is a configuration error, never an empty success.
func ResolveConfigs(opts Options) ([]*bundler.Config, error) {
	s, err := newSession(opts)
	if err != nil {
		return nil, err
	}
	builds, err := s.plan()
	if err != nil {
		return nil, err
	}
	configs := make([]*bundler.Config, len(builds))
	for i := range builds {
		configs[i] = builds[i].Config
	}
	return configs, nil
}

// Run resolves the document and builds every planned configuration once,
// in order, stopping at the first failure.
func Run(ctx context.Context, opts Options) error {
	if opts.Bundler == nil {
		return rigerr.NewOption("bundler", "a bundler implementation is required")
	}
	s, err := newSession(opts)
	if err != nil {
		return err
	}
	builds, err := s.plan()
	if err != nil {
		return err
	}

	st := s.openHistory(ctx)
	if st != nil {
		defer st.Close()
	}

	return runner.New(opts.Bundler, st, nil, s.logger).Run(ctx, s.bc, builds)
}

// RunWatch resolves and builds once, then holds the session open: each
// receive on triggers re-resolves the document and rebuilds whatever
// changed. Build failures are reported and the session keeps watching;
// only a failure to resolve the initial plan aborts. The session ends
// when ctx is done or triggers is closed, and ending it is not an error.
func RunWatch(ctx context.Context, opts Options, triggers <-chan struct{}) error {
	if opts.Bundler == nil {
		return rigerr.NewOption("bundler", "a bundler implementation is required")
	}
	s, err := newSession(opts)
	if err != nil {
		return err
	}
	s.bc.Watch = true

	m := metrics.New()
	st := s.openHistory(ctx)
	if st != nil {
		defer st.Close()
	}

	if opts.StatusAddr != "" {
		srv := status.New(opts.StatusAddr, st, m, s.logger)
		go func() {
			if err := srv.Start(); err != nil {
				s.logger.Error().Err(err).Msg("status server stopped")
			}
		}()
		defer srv.Shutdown()
	}

	started := time.Now()
	builds, err := s.plan()
	if err != nil {
		return err
	}
	m.ObserveResolveDuration(time.Since(started).Seconds())

	r := runner.New(opts.Bundler, st, m, s.logger)
	lastErr := r.Run(ctx, s.bc, builds)
	if lastErr != nil && !errors.Is(lastErr, context.Canceled) {
		s.logger.Error().Err(lastErr).Msg("initial build failed, watching for changes")
	}

	for {
		select {
		case <-ctx.Done():
			return s.endWatch(r, lastErr)
		case _, ok := <-triggers:
			if !ok {
				return s.endWatch(r, lastErr)
			}
			started := time.Now()
			builds, err := s.replan()
			if err != nil {
				s.logger.Error().Err(err).Msg("resolution failed, skipping rebuild")
				lastErr = err
				continue
			}
			m.ObserveResolveDuration(time.Since(started).Seconds())
			lastErr = r.Rebuild(ctx, s.bc, builds)
			if lastErr != nil && !errors.Is(lastErr, context.Canceled) {
				s.logger.Error().Err(lastErr).Msg("rebuild failed, watching for changes")
			}
		}
	}
}

// endWatch closes out the watch session's run record. Cancellation is the
// normal way to end a session, not a failure.
func (s *session) endWatch(r *runner.Runner, lastErr error) error {
	if errors.Is(lastErr, context.Canceled) {
		lastErr = nil
	}
	r.Finish(s.bc, lastErr)
	return nil
}
