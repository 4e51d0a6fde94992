package buildctx

import (
	"time"

	"github.com/google/uuid"

	"github.com/bundlerig/bundlerig/pkg/bundler"
)

// Context is the per-invocation run state. It is created once before any
// project is resolved and read by every downstream component. After
// construction only SetProgress and SetCleanOutputs mutate it, and both
// are recorded once during startup. It is single-writer and must not be
// mutated concurrently.
type Context struct {
	RunID     string
	Workspace string
	Env       *Environment
	Filter    []string
	Verbose   bool
	Watch     bool
	StartedAt time.Time

	progress     bool
	cleanOutputs bool
}

// New creates a run context for the given workspace root. A nil env is
// replaced with an empty default.
func New(workspace string, env *Environment) *Context {
	if env == nil {
		env = &Environment{}
	}
	return &Context{
		RunID:     uuid.NewString(),
		Workspace: workspace,
		Env:       env,
		StartedAt: time.Now(),
	}
}

// SetProgress records the progress-reporting flag.
func (c *Context) SetProgress(on bool) { c.progress = on }

// Progress reports whether progress reporting was requested.
func (c *Context) Progress() bool { return c.progress }

// SetCleanOutputs records the output-cleaning flag.
func (c *Context) SetCleanOutputs(on bool) { c.cleanOutputs = on }

// CleanOutputs reports whether output directories are wiped before builds.
func (c *Context) CleanOutputs() bool { return c.cleanOutputs }

// Mode returns the bundler mode implied by the environment.
func (c *Context) Mode() string {
	if c.Env.Production {
		return bundler.ModeProduction
	}
	return bundler.ModeDevelopment
}

// MainBuild reports whether this run is the main build, as opposed to a
// vendor (dll) or test pass.
func (c *Context) MainBuild() bool {
	return !c.Env.DllPass && !c.Env.TestPass
}
