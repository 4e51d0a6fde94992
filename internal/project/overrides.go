package project

import (
	"fmt"

	"dario.cat/mergo"

	"github.com/bundlerig/bundlerig/pkg/buildctx"
)

// ApplyEnvOverrides applies every override set whose name is truthy in
// the active environment, in the map's declared order, so later matching
// sets win on conflict.
//
// Merge policy: scalar fields are replaced outright, list fields are
// replaced outright (never concatenated), and nested sections are merged
// key-by-key. Entry-point concatenation happens later in the fragment
// merger; the two sites intentionally differ.
func ApplyEnvOverrides(p *Project, env *buildctx.Environment) error {
	if env == nil {
		return nil
	}
	for _, entry := range p.EnvOverrides {
		if !env.Flag(entry.Key) {
			continue
		}
		if err := applyOverride(p, &entry.Spec); err != nil {
			return fmt.Errorf("applying override set %q: %w", entry.Key, err)
		}
	}
	return nil
}

func applyOverride(p *Project, o *OverrideSpec) error {
	if o.Root != nil {
		p.Root = *o.Root
	}
	if o.OutDir != nil {
		p.OutDir = *o.OutDir
	}
	if o.Target != nil {
		p.Target = *o.Target
	}
	if o.Skip != nil {
		p.Skip = *o.Skip
	}

	// Lists replace wholesale. A present-but-empty list clears the field.
	if o.Entry != nil {
		p.Entry = o.Entry
	}
	if o.Assets != nil {
		p.Assets = o.Assets
	}
	if o.Styles != nil {
		p.Styles = o.Styles
	}
	if o.Vendor != nil {
		p.Vendor = o.Vendor
	}

	if o.Bundle != nil {
		if p.Bundle == nil {
			p.Bundle = &BundleOptions{}
		}
		mergeBundle(p.Bundle, o.Bundle)
	}
	if o.Lib != nil {
		if p.Lib == nil {
			p.Lib = &LibOptions{}
		}
		mergeLib(p.Lib, o.Lib)
	}
	if o.Custom != nil {
		if p.Custom == nil {
			p.Custom = &CustomConfig{}
		}
		if err := mergeCustom(p.Custom, o.Custom); err != nil {
			return err
		}
	}
	return nil
}

// mergeBundle merges src over dst: every field src sets replaces dst's.
func mergeBundle(dst, src *BundleOptions) {
	if src.Minify != nil {
		dst.Minify = src.Minify
	}
	if src.SourceMaps != nil {
		dst.SourceMaps = src.SourceMaps
	}
	if src.Hashing != nil {
		dst.Hashing = src.Hashing
	}
	if src.PublicPath != nil {
		dst.PublicPath = src.PublicPath
	}
}

// mergeLib merges src over dst key-by-key.
func mergeLib(dst, src *LibOptions) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.Externals != nil {
		dst.Externals = src.Externals
	}
}

// mergeCustom merges src over dst. Entry keys replace per key, rule and
// plugin lists replace wholesale, and the free-form options object is
// deep-merged with src winning.
func mergeCustom(dst, src *CustomConfig) error {
	if src.Entry != nil {
		if dst.Entry == nil {
			dst.Entry = make(map[string]StringList, len(src.Entry))
		}
		for k, v := range src.Entry {
			dst.Entry[k] = v
		}
	}
	if src.Rules != nil {
		dst.Rules = src.Rules
	}
	if src.Plugins != nil {
		dst.Plugins = src.Plugins
	}
	if src.Options != nil {
		if dst.Options == nil {
			dst.Options = make(map[string]any, len(src.Options))
		}
		if err := mergo.Merge(&dst.Options, src.Options, mergo.WithOverride); err != nil {
			return fmt.Errorf("merging custom options: %w", err)
		}
	}
	return nil
}
