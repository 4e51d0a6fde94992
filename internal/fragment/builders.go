package fragment

import (
	"slices"

	"github.com/bundlerig/bundlerig/internal/project"
	"github.com/bundlerig/bundlerig/pkg/buildctx"
	"github.com/bundlerig/bundlerig/pkg/bundler"
	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

// Common builds the baseline fragment shared by every configuration:
// mode, context, the main entry point, output location and artifact
// naming, the script transpilation rule, and the project's asset copies.
func Common(res *project.Resolved, bc *buildctx.Context) (*Fragment, error) {
	if res.AbsRoot == "" || res.AbsOutDir == "" {
		return nil, rigerr.NewInternal("project %s reached the config builders without resolved paths", res.Path())
	}

	filename, chunkFilename := "[name].js", "[name].chunk.js"
	if hashedOutputs(res) {
		filename = "[name].[contenthash:8].js"
		chunkFilename = "[name].[contenthash:8].chunk.js"
	}

	f := &Fragment{
		Mode:    bc.Mode(),
		Context: res.AbsRoot,
		Output: bundler.Output{
			Path:          res.AbsOutDir,
			Filename:      filename,
			ChunkFilename: chunkFilename,
		},
		Rules: []bundler.Rule{{
			Test:    `\.[jt]sx?$`,
			Use:     []string{"babel-loader"},
			Exclude: []string{"**/node_modules/**"},
		}},
		Plugins: []bundler.Plugin{{
			Name:    "define",
			Options: map[string]any{"process.env.NODE_ENV": bc.Mode()},
		}},
		Copies: slices.Clone(res.ParsedAssets),
		Extra:  map[string]any{},
	}

	if len(res.Entry) > 0 {
		f.Entry = bundler.EntryMap{"main": slices.Clone(res.Entry)}
	}

	minify := bc.Env.Production
	sourceMaps := "cheap"
	if bc.Env.Production {
		sourceMaps = "none"
	}
	if res.Bundle != nil {
		if res.Bundle.Minify != nil {
			minify = *res.Bundle.Minify
		}
		if res.Bundle.SourceMaps != nil {
			sourceMaps = *res.Bundle.SourceMaps
		}
		if res.Bundle.PublicPath != nil {
			f.Output.PublicPath = *res.Bundle.PublicPath
		}
	}
	f.Extra["minify"] = minify
	f.Extra["sourceMaps"] = sourceMaps

	return f, nil
}

// Styles builds the stylesheet fragment. For the main web build the
// project's global styles become their own entry point emitted as a
// separate artifact, and the script artifact that entry point would
// otherwise emit empty is suppressed. Everywhere else global styles ride
// along in the main entry.
func Styles(res *project.Resolved, bc *buildctx.Context) *Fragment {
	cssName := "[name].css"
	if hashedOutputs(res) {
		cssName = "[name].[contenthash:8].css"
	}

	sources := styleSources(res.ParsedStyles)
	split := bc.MainBuild() && res.Target == project.TargetWeb && !res.VendorBundle

	if !split {
		f := &Fragment{
			Rules: []bundler.Rule{{
				Test: `\.s?css$`,
				Use:  []string{"style-loader", "css-loader"},
			}},
		}
		if len(sources) > 0 {
			f.Entry = bundler.EntryMap{"main": sources}
		}
		return f
	}

	f := &Fragment{
		Rules: []bundler.Rule{{
			Test: `\.s?css$`,
			Use:  []string{"extract-css-loader", "css-loader"},
		}},
		Plugins: []bundler.Plugin{{
			Name:    "extract-css",
			Options: map[string]any{"filename": cssName},
		}},
	}
	if len(sources) > 0 {
		f.Entry = bundler.EntryMap{"styles": sources}
		f.Plugins = append(f.Plugins, bundler.Plugin{
			Name:    "suppress-empty-script",
			Options: map[string]any{"entries": []string{"styles"}},
		})
	}
	return f
}

// Vendor builds the fragment for a vendor-bundle variant: the declared
// vendor modules as the sole entry point, stable artifact names so the
// manifest stays addressable, and the plugins that emit the manifest and
// asset listing the gatekeeper and the main build consume.
func Vendor(res *project.Resolved, bc *buildctx.Context) (*Fragment, error) {
	if len(res.Vendor) == 0 {
		return nil, rigerr.NewInternal("project %s has no vendor modules but reached the vendor builder", res.Path())
	}
	chunk := res.VendorChunkName()
	return &Fragment{
		Entry: bundler.EntryMap{chunk: slices.Clone(res.Vendor)},
		Output: bundler.Output{
			Filename:      "[name].js",
			ChunkFilename: "[name].chunk.js",
			LibraryName:   libraryRef(chunk),
		},
		Plugins: []bundler.Plugin{
			{
				Name: "vendor-manifest",
				Options: map[string]any{
					"name": libraryRef(chunk),
					"path": res.VendorManifestPath(),
				},
			},
			{
				Name: "vendor-assets",
				Options: map[string]any{
					"path": res.VendorAssetsPath(),
				},
			},
		},
	}, nil
}

// Target builds the kind- and target-specific fragment: the bundler
// target, for libraries the exported name, module format and externals,
// and for main builds of vendor-eligible projects the plugin that links
// against the prebuilt vendor bundle.
func Target(res *project.Resolved, bc *buildctx.Context) *Fragment {
	f := &Fragment{
		Extra: map[string]any{"target": res.Target},
	}
	if res.Kind == project.KindLib && res.Lib != nil {
		f.Output.LibraryName = res.Lib.Name
		f.Output.LibraryFormat = res.Lib.Format
		if len(res.Lib.Externals) > 0 {
			f.Extra["externals"] = slices.Clone(res.Lib.Externals)
		}
	}
	if res.HasVendor() && !res.VendorBundle && bc.MainBuild() {
		f.Plugins = append(f.Plugins, bundler.Plugin{
			Name:    "vendor-reference",
			Options: map[string]any{"manifest": res.VendorManifestPath()},
		})
	}
	return f
}

// Custom builds the user-supplied fragment. It is merged last, so
// anything here overrides or extends what the other builders produced.
func Custom(res *project.Resolved, _ *buildctx.Context) *Fragment {
	c := res.Custom
	if c == nil {
		return &Fragment{}
	}
	f := &Fragment{
		Rules:   slices.Clone(c.Rules),
		Plugins: slices.Clone(c.Plugins),
		Extra:   c.Options,
	}
	if len(c.Entry) > 0 {
		f.Entry = make(bundler.EntryMap, len(c.Entry))
		for name, sources := range c.Entry {
			f.Entry[name] = slices.Clone(sources)
		}
	}
	return f
}

func hashedOutputs(res *project.Resolved) bool {
	return res.Bundle != nil && res.Bundle.Hashing != nil && *res.Bundle.Hashing
}

// styleSources flattens parsed style patterns back to their canonical
// string form for use as entry sources.
func styleSources(patterns []bundler.CopyPattern) []string {
	if len(patterns) == 0 {
		return nil
	}
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p.Kind == bundler.PatternLiteral {
			out = append(out, p.Path)
		} else {
			out = append(out, p.Glob)
		}
	}
	return out
}

// libraryRef turns a chunk name into an identifier-safe global reference,
// "shop-vendor" becomes "shop_vendor".
func libraryRef(chunk string) string {
	out := []rune(chunk)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
