// Package fragment builds the partial configurations that make up a final
// bundler configuration and merges them.
//
// Every final configuration is assembled from fragments merged strictly
// left to right: the common baseline first, then styles, then the vendor
// or target fragment, then the user-supplied custom fragment last, so
// user customization always has final say.
package fragment

import (
	"fmt"

	"dario.cat/mergo"

	"github.com/bundlerig/bundlerig/pkg/bundler"
)

// Fragment is one partial configuration. Fragments are plain data: builders
// produce them independently and only Merge combines them.
type Fragment struct {
	Mode    string
	Context string
	Entry   bundler.EntryMap
	Output  bundler.Output
	Rules   []bundler.Rule
	Plugins []bundler.Plugin
	Copies  []bundler.CopyPattern
	Extra   map[string]any
}

// Merge combines fragments left to right into one configuration. Nil
// fragments are skipped. Precedence per section:
//
//   - entry maps are unioned, colliding keys get their source lists
//     concatenated in fragment order;
//   - rules and plugins are appended preserving insertion order, which is
//     significant to the bundler;
//   - copies are appended;
//   - scalars (mode, context, output fields) take the last non-empty value;
//   - extra options are deep-merged, later fragments win.
//
// A merge whose entry map comes out empty is flagged AssetOnly instead of
// carrying an empty map, which the bundler would reject.
func Merge(frags ...*Fragment) (*bundler.Config, error) {
	cfg := &bundler.Config{}
	for _, f := range frags {
		if f == nil {
			continue
		}
		if f.Mode != "" {
			cfg.Mode = f.Mode
		}
		if f.Context != "" {
			cfg.Context = f.Context
		}
		mergeOutput(&cfg.Output, f.Output)
		cfg.Entry = mergeEntries(cfg.Entry, f.Entry)
		cfg.Rules = mergeRules(cfg.Rules, f.Rules)
		cfg.Plugins = mergePlugins(cfg.Plugins, f.Plugins)
		cfg.Copies = append(cfg.Copies, f.Copies...)
		if len(f.Extra) > 0 {
			if cfg.Extra == nil {
				cfg.Extra = make(map[string]any, len(f.Extra))
			}
			if err := mergo.Merge(&cfg.Extra, f.Extra, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("merging extra options: %w", err)
			}
		}
	}
	if len(cfg.Entry) == 0 {
		cfg.Entry = nil
		cfg.AssetOnly = true
	}
	return cfg, nil
}

// mergeEntries unions src into dst, concatenating source lists on key
// collisions. Within a key, earlier fragments' sources come first.
func mergeEntries(dst, src bundler.EntryMap) bundler.EntryMap {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(bundler.EntryMap, len(src))
	}
	for name, sources := range src {
		dst[name] = append(dst[name], sources...)
	}
	return dst
}

// mergeRules appends src after dst. Rules are never deduplicated or
// reordered.
func mergeRules(dst, src []bundler.Rule) []bundler.Rule {
	return append(dst, src...)
}

// mergePlugins appends src after dst, preserving insertion order.
func mergePlugins(dst, src []bundler.Plugin) []bundler.Plugin {
	return append(dst, src...)
}

// mergeOutput overlays the non-empty fields of src onto dst.
func mergeOutput(dst *bundler.Output, src bundler.Output) {
	if src.Path != "" {
		dst.Path = src.Path
	}
	if src.Filename != "" {
		dst.Filename = src.Filename
	}
	if src.ChunkFilename != "" {
		dst.ChunkFilename = src.ChunkFilename
	}
	if src.PublicPath != "" {
		dst.PublicPath = src.PublicPath
	}
	if src.LibraryName != "" {
		dst.LibraryName = src.LibraryName
	}
	if src.LibraryFormat != "" {
		dst.LibraryFormat = src.LibraryFormat
	}
}
