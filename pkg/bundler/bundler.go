// Package bundler defines the contract between the configuration pipeline
// and the external module bundler that consumes its output.
//
// The pipeline assembles Config values; it never compiles, transforms or
// copies anything itself. Rules, plugins and copy patterns are opaque
// descriptors handed to whatever Bundler implementation the caller wires in.
package bundler

import (
	"context"
	"time"
)

// Build modes understood by the bundler.
const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

// Project kinds carried on a final configuration.
const (
	KindApp = "app"
	KindLib = "lib"
)

// PatternKind discriminates the two copy pattern shapes.
type PatternKind string

const (
	// PatternLiteral is an exact absolute source path.
	PatternLiteral PatternKind = "literal"
	// PatternGlob is a glob expression resolved against Context.
	PatternGlob PatternKind = "glob"
)

// CopyPattern is a canonical file-selection descriptor produced by the
// entry parser. Exactly one of Path or Glob is set, according to Kind.
type CopyPattern struct {
	Kind          PatternKind `json:"kind" yaml:"kind"`
	Path          string      `json:"path,omitempty" yaml:"path,omitempty"`
	Glob          string      `json:"glob,omitempty" yaml:"glob,omitempty"`
	IncludeHidden bool        `json:"includeHidden,omitempty" yaml:"includeHidden,omitempty"`
	Context       string      `json:"context" yaml:"context"`
	To            string      `json:"to,omitempty" yaml:"to,omitempty"`
	Exclude       []string    `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// Rule is a module-processing rule descriptor. Order within a Config is
// significant to the bundler and must be preserved by anything that
// rearranges configurations.
type Rule struct {
	Test    string         `json:"test" yaml:"test"`
	Use     []string       `json:"use,omitempty" yaml:"use,omitempty"`
	Include []string       `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []string       `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Plugin is an opaque plugin descriptor. Like rules, plugin order is
// significant.
type Plugin struct {
	Name    string         `json:"name" yaml:"name"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Output describes where and under which names artifacts are emitted.
type Output struct {
	Path          string `json:"path" yaml:"path"`
	Filename      string `json:"filename,omitempty" yaml:"filename,omitempty"`
	ChunkFilename string `json:"chunkFilename,omitempty" yaml:"chunkFilename,omitempty"`
	PublicPath    string `json:"publicPath,omitempty" yaml:"publicPath,omitempty"`
	LibraryName   string `json:"libraryName,omitempty" yaml:"libraryName,omitempty"`
	LibraryFormat string `json:"libraryFormat,omitempty" yaml:"libraryFormat,omitempty"`
}

// VendorRef points a main build at the artifacts of a previously built
// vendor bundle.
type VendorRef struct {
	Name         string `json:"name" yaml:"name"`
	ManifestPath string `json:"manifestPath" yaml:"manifestPath"`
	AssetsPath   string `json:"assetsPath" yaml:"assetsPath"`
}

// EntryMap maps entry point names to ordered source lists.
type EntryMap map[string][]string

// Config is one fully merged build instruction set for one project.
// It is created once per project per invocation, handed to the Bundler,
// and discarded afterwards.
type Config struct {
	Name    string   `json:"name" yaml:"name"`
	Kind    string   `json:"kind" yaml:"kind"`
	Mode    string   `json:"mode" yaml:"mode"`
	Context string   `json:"context" yaml:"context"`
	Entry   EntryMap `json:"entry,omitempty" yaml:"entry,omitempty"`

	// AssetOnly is set when the merged entry map came out empty. The
	// bundler treats an empty entry map as an error, so such configs are
	// flagged as copy/emit-only work instead.
	AssetOnly bool `json:"assetOnly,omitempty" yaml:"assetOnly,omitempty"`

	Output  Output        `json:"output" yaml:"output"`
	Rules   []Rule        `json:"rules,omitempty" yaml:"rules,omitempty"`
	Plugins []Plugin      `json:"plugins,omitempty" yaml:"plugins,omitempty"`
	Copies  []CopyPattern `json:"copies,omitempty" yaml:"copies,omitempty"`

	// VendorBundle marks this config as the vendor variant of its
	// project. Vendor references the prebuilt vendor artifacts from a
	// main build; both are never set on the same config.
	VendorBundle bool       `json:"vendorBundle,omitempty" yaml:"vendorBundle,omitempty"`
	Vendor       *VendorRef `json:"vendor,omitempty" yaml:"vendor,omitempty"`

	Progress      bool           `json:"progress,omitempty" yaml:"progress,omitempty"`
	DetailedStats bool           `json:"detailedStats,omitempty" yaml:"detailedStats,omitempty"`
	Extra         map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Stats summarizes one bundler run.
type Stats struct {
	Assets   []string      `json:"assets,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
	Errors   []string      `json:"errors,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Result is the outcome of one bundler invocation.
type Result struct {
	Stats Stats `json:"stats"`
}

// HasErrors reports whether the bundler recorded structural errors.
// Warnings alone do not count.
func (r *Result) HasErrors() bool {
	return r != nil && len(r.Stats.Errors) > 0
}

// HasWarnings reports whether the bundler recorded warnings.
func (r *Result) HasWarnings() bool {
	return r != nil && len(r.Stats.Warnings) > 0
}

// Bundler compiles one configuration into build artifacts. Watch-style
// rebuilds are a host concern: the set of configurations can change
// between passes, so the host replans and calls Build again instead of
// handing a single config to a long-lived watcher.
type Bundler interface {
	Build(ctx context.Context, cfg *Config) (*Result, error)
}
