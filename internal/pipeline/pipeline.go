// Package pipeline turns a loaded configuration document into final
// bundler configurations: schema validation, per-project resolution,
// filtering, entry parsing, fragment assembly and merging, in that
// order, synchronously and fail-fast.
package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bundlerig/bundlerig/internal/entry"
	"github.com/bundlerig/bundlerig/internal/fragment"
	"github.com/bundlerig/bundlerig/internal/project"
	"github.com/bundlerig/bundlerig/pkg/buildctx"
	"github.com/bundlerig/bundlerig/pkg/bundler"
	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

// Build is one planned unit of work: a project, its final configuration,
// and, when the project declares vendor modules on a main build, the
// vendor-bundle variant the gatekeeper builds on demand.
type Build struct {
	Project *project.Resolved
	Config  *bundler.Config
	Vendor  *bundler.Config
}

// Pipeline resolves documents for one process. It is stateless between
// invocations apart from the entry parser's stat cache.
type Pipeline struct {
	schema *project.Schema
	parser *entry.Parser
	logger zerolog.Logger
}

// New creates a pipeline using the default schema.
func New(parser *entry.Parser, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		schema: project.DefaultSchema(),
		parser: parser,
		logger: logger.With().Str("component", "pipeline").Logger(),
	}
}

// Plan resolves the document into the builds for this invocation, libs
// first, then apps, each list in declared order. Any validation or
// resolution failure aborts the whole invocation; there is no partial
// result. An invocation that would produce zero builds is a
// configuration error, never an empty success.
func (p *Pipeline) Plan(bc *buildctx.Context, doc *project.Config) ([]Build, error) {
	started := time.Now()
	if doc == nil {
		return nil, rigerr.NewInternal("pipeline invoked without a configuration document")
	}

	if violations := p.schema.Validate(doc); len(violations) > 0 {
		return nil, rigerr.NewSchema(violations)
	}

	libs, err := project.ResolveList(doc.Libs, project.KindLib, doc.Defaults, bc)
	if err != nil {
		return nil, err
	}
	apps, err := project.ResolveList(doc.Apps, project.KindApp, doc.Defaults, bc)
	if err != nil {
		return nil, err
	}

	libs = project.Filter(libs, project.KindLib, bc.Filter)
	apps = project.Filter(apps, project.KindApp, bc.Filter)

	survivors := make([]*project.Resolved, 0, len(libs)+len(apps))
	survivors = append(survivors, libs...)
	survivors = append(survivors, apps...)
	if len(survivors) == 0 {
		if len(bc.Filter) > 0 {
			return nil, rigerr.NewConfig("no projects match filter %v (or all matches are skip-flagged)", bc.Filter)
		}
		return nil, rigerr.NewConfig("no projects to build: every project is skip-flagged or the document is empty")
	}

	builds := make([]Build, 0, len(survivors))
	for _, res := range survivors {
		b, err := p.planProject(bc, res)
		if err != nil {
			return nil, err
		}
		if b != nil {
			builds = append(builds, *b)
		}
	}
	if len(builds) == 0 {
		return nil, rigerr.NewConfig("dll pass requested but no surviving project declares vendor modules")
	}

	p.logger.Debug().
		Int("builds", len(builds)).
		Dur("took", time.Since(started)).
		Msg("resolved configurations")
	return builds, nil
}

// Configs returns just the final configurations of a plan.
func (p *Pipeline) Configs(bc *buildctx.Context, doc *project.Config) ([]*bundler.Config, error) {
	builds, err := p.Plan(bc, doc)
	if err != nil {
		return nil, err
	}
	out := make([]*bundler.Config, len(builds))
	for i := range builds {
		out[i] = builds[i].Config
	}
	return out, nil
}

// planProject produces the build for one surviving project. On a dll
// pass, projects without vendor modules have nothing to build and are
// dropped (nil, nil).
func (p *Pipeline) planProject(bc *buildctx.Context, res *project.Resolved) (*Build, error) {
	if err := p.parseEntries(res); err != nil {
		return nil, err
	}

	if bc.Env.DllPass {
		if !res.HasVendor() {
			p.logger.Debug().
				Str("project", res.Name).
				Msg("no vendor modules, skipped on dll pass")
			return nil, nil
		}
		vcfg, err := p.assembleVendor(bc, res)
		if err != nil {
			return nil, err
		}
		return &Build{Project: res, Config: vcfg}, nil
	}

	cfg, err := p.assemble(bc, res, nil)
	if err != nil {
		return nil, err
	}
	b := &Build{Project: res, Config: cfg}

	if res.HasVendor() && bc.MainBuild() {
		cfg.Vendor = &bundler.VendorRef{
			Name:         res.VendorChunkName(),
			ManifestPath: res.VendorManifestPath(),
			AssetsPath:   res.VendorAssetsPath(),
		}
		vcfg, err := p.assembleVendor(bc, res)
		if err != nil {
			return nil, err
		}
		b.Vendor = vcfg
	}
	return b, nil
}

// assembleVendor builds the vendor-bundle variant: same project, vendor
// flag set, with the main entry, asset copies and global styles
// suppressed so only the declared vendor modules are built.
func (p *Pipeline) assembleVendor(bc *buildctx.Context, res *project.Resolved) (*bundler.Config, error) {
	vres := *res
	vres.VendorBundle = true
	vres.Entry = nil
	vres.ParsedAssets = nil
	vres.ParsedStyles = nil

	vendorFrag, err := fragment.Vendor(&vres, bc)
	if err != nil {
		return nil, err
	}
	return p.assemble(bc, &vres, vendorFrag)
}

// assemble merges the fragment chain for res. The third slot holds the
// vendor fragment when given, the target fragment otherwise; custom is
// always last.
func (p *Pipeline) assemble(bc *buildctx.Context, res *project.Resolved, vendorFrag *fragment.Fragment) (*bundler.Config, error) {
	common, err := fragment.Common(res, bc)
	if err != nil {
		return nil, err
	}

	third := vendorFrag
	if third == nil {
		third = fragment.Target(res, bc)
	}

	cfg, err := fragment.Merge(common, fragment.Styles(res, bc), third, fragment.Custom(res, bc))
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", res.Path(), res.Name, err)
	}

	cfg.Name = res.Name
	cfg.Kind = string(res.Kind)
	cfg.VendorBundle = res.VendorBundle
	cfg.Progress = bc.Progress()
	cfg.DetailedStats = bc.Verbose
	return cfg, nil
}

func (p *Pipeline) parseEntries(res *project.Resolved) error {
	assets, err := p.parser.Parse(res.AbsRoot, res.Assets)
	if err != nil {
		return fmt.Errorf("%s (%s): assets: %w", res.Path(), res.Name, err)
	}
	styles, err := p.parser.Parse(res.AbsRoot, res.Styles)
	if err != nil {
		return fmt.Errorf("%s (%s): styles: %w", res.Path(), res.Name, err)
	}
	res.ParsedAssets = assets
	res.ParsedStyles = styles
	return nil
}
