// Package project models the declarative configuration document: app and
// library targets, their defaults, environment-keyed override sets, and
// the loading, validation, resolution and filtering steps that turn the
// raw document into resolved per-project configurations.
package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bundlerig/bundlerig/pkg/bundler"
)

// Kind discriminates app and library projects.
type Kind string

const (
	KindApp Kind = "app"
	KindLib Kind = "lib"
)

// ListName returns the document list a kind belongs to ("apps" or "libs").
func (k Kind) ListName() string {
	if k == KindLib {
		return "libs"
	}
	return "apps"
}

// Build targets a project may declare.
const (
	TargetWeb       = "web"
	TargetNode      = "node"
	TargetWebWorker = "webworker"
)

// Config is the top-level configuration document. It is immutable once
// loaded; resolution always works on cloned projects.
type Config struct {
	Defaults *Defaults `yaml:"defaults" json:"defaults"`
	Apps     []Project `yaml:"apps" json:"apps"`
	Libs     []Project `yaml:"libs" json:"libs"`
}

// Defaults is the optional document-level defaults section, consulted for
// fields a project leaves unset before the builtin fallbacks apply.
type Defaults struct {
	OutDir string         `yaml:"outDir" json:"outDir"`
	Target string         `yaml:"target" json:"target"`
	Bundle *BundleOptions `yaml:"bundle" json:"bundle"`
}

// Project is one user-authored build target.
type Project struct {
	Name         string         `yaml:"name" json:"name"`
	Root         string         `yaml:"root" json:"root"`
	OutDir       string         `yaml:"outDir" json:"outDir"`
	Entry        StringList     `yaml:"entry" json:"entry"`
	Target       string         `yaml:"target" json:"target"`
	Assets       EntryList      `yaml:"assets" json:"assets"`
	Styles       EntryList      `yaml:"styles" json:"styles"`
	Vendor       []string       `yaml:"vendor" json:"vendor"`
	Bundle       *BundleOptions `yaml:"bundle" json:"bundle"`
	Lib          *LibOptions    `yaml:"lib" json:"lib"`
	Skip         bool           `yaml:"skip" json:"skip"`
	EnvOverrides OverrideMap    `yaml:"envOverrides" json:"envOverrides"`
	Custom       *CustomConfig  `yaml:"custom" json:"custom"`
}

// BundleOptions tunes artifact emission. Pointer fields distinguish
// unset from explicitly-false in override sets.
type BundleOptions struct {
	Minify     *bool   `yaml:"minify" json:"minify"`
	SourceMaps *string `yaml:"sourceMaps" json:"sourceMaps"` // none, cheap, full
	Hashing    *bool   `yaml:"hashing" json:"hashing"`
	PublicPath *string `yaml:"publicPath" json:"publicPath"`
}

// LibOptions configures library output.
type LibOptions struct {
	Name      string   `yaml:"name" json:"name"`
	Format    string   `yaml:"format" json:"format"` // umd, commonjs, esm
	Externals []string `yaml:"externals" json:"externals"`
}

// CustomConfig is the user-supplied configuration fragment, merged last
// so user customization always has final say.
type CustomConfig struct {
	Entry   map[string]StringList `yaml:"entry" json:"entry"`
	Rules   []bundler.Rule        `yaml:"rules" json:"rules"`
	Plugins []bundler.Plugin      `yaml:"plugins" json:"plugins"`
	Options map[string]any        `yaml:"options" json:"options"`
}

// Resolved is a project after defaults, overrides and path resolution.
// Owned exclusively by the pipeline run that created it.
type Resolved struct {
	Project

	Kind      Kind
	Index     int
	AbsRoot   string
	AbsOutDir string

	// VendorBundle marks the vendor-bundle variant of this project.
	VendorBundle bool

	// Parsed entry lists, cached here by the pipeline once the entry
	// parser has run so every builder reads the same canonical view.
	ParsedAssets []bundler.CopyPattern
	ParsedStyles []bundler.CopyPattern
}

// Path returns the document location of this project, e.g. "libs[0]".
func (r *Resolved) Path() string {
	return fmt.Sprintf("%s[%d]", r.Kind.ListName(), r.Index)
}

// VendorManifestPath is where the vendor build writes its manifest and
// where the gatekeeper probes for it.
func (r *Resolved) VendorManifestPath() string {
	return filepath.Join(r.AbsOutDir, r.VendorChunkName()+".manifest.json")
}

// VendorAssetsPath is where the vendor build writes its asset listing.
func (r *Resolved) VendorAssetsPath() string {
	return filepath.Join(r.AbsOutDir, r.VendorChunkName()+".assets.json")
}

// StringList decodes from either a single scalar string or a sequence of
// strings.
type StringList []string

func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*s = nil
			return nil
		}
		if value.Tag != "!!str" {
			return fmt.Errorf("line %d: expected a string, got %s", value.Line, value.Tag)
		}
		*s = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}

func (s *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*s = nil
		return nil
	}
	if trimmed[0] == '"' {
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return err
		}
		*s = StringList{str}
		return nil
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return fmt.Errorf("expected a string or a list of strings: %w", err)
	}
	*s = list
	return nil
}

// EntrySpec is one asset or style selection: either a bare pattern string
// or a structured form with destination and context overrides.
type EntrySpec struct {
	From    string     `yaml:"from" json:"from"`
	To      string     `yaml:"to" json:"to"`
	Context string     `yaml:"context" json:"context"`
	Exclude StringList `yaml:"exclude" json:"exclude"`
}

// EntryList is a heterogeneous list of entry specs. It decodes from a
// single string, a single mapping, or a list mixing both. Absent and
// null decode to nil. Anything else is rejected at decode time.
type EntryList []EntrySpec

func (e *EntryList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*e = nil
			return nil
		}
		spec, err := entrySpecFromScalar(value)
		if err != nil {
			return err
		}
		*e = EntryList{spec}
		return nil
	case yaml.MappingNode:
		var spec EntrySpec
		if err := value.Decode(&spec); err != nil {
			return err
		}
		*e = EntryList{spec}
		return nil
	case yaml.SequenceNode:
		out := make(EntryList, 0, len(value.Content))
		for _, item := range value.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				spec, err := entrySpecFromScalar(item)
				if err != nil {
					return err
				}
				out = append(out, spec)
			case yaml.MappingNode:
				var spec EntrySpec
				if err := item.Decode(&spec); err != nil {
					return err
				}
				out = append(out, spec)
			default:
				return fmt.Errorf("line %d: entry must be a string or a mapping", item.Line)
			}
		}
		*e = out
		return nil
	default:
		return fmt.Errorf("line %d: entries must be a string, a mapping, or a list", value.Line)
	}
}

func entrySpecFromScalar(node *yaml.Node) (EntrySpec, error) {
	if node.Tag != "!!str" {
		return EntrySpec{}, fmt.Errorf("line %d: entry must be a string or a mapping, got %s", node.Line, node.Tag)
	}
	return EntrySpec{From: node.Value}, nil
}

func (e *EntryList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*e = nil
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*e = EntryList{{From: s}}
		return nil
	case '{':
		var spec entrySpecJSON
		if err := json.Unmarshal(trimmed, &spec); err != nil {
			return err
		}
		*e = EntryList{EntrySpec(spec)}
		return nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		out := make(EntryList, 0, len(items))
		for i, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) == 0 {
				return fmt.Errorf("entries[%d]: empty entry", i)
			}
			switch item[0] {
			case '"':
				var s string
				if err := json.Unmarshal(item, &s); err != nil {
					return err
				}
				out = append(out, EntrySpec{From: s})
			case '{':
				var spec entrySpecJSON
				if err := json.Unmarshal(item, &spec); err != nil {
					return err
				}
				out = append(out, EntrySpec(spec))
			default:
				return fmt.Errorf("entries[%d]: entry must be a string or an object", i)
			}
		}
		*e = out
		return nil
	default:
		return fmt.Errorf("entries must be a string, an object, or an array")
	}
}

// entrySpecJSON avoids recursing into EntryList's custom decoding.
type entrySpecJSON struct {
	From    string     `json:"from"`
	To      string     `json:"to"`
	Context string     `json:"context"`
	Exclude StringList `json:"exclude"`
}

// OverrideEntry pairs an override-set name with its partial config.
type OverrideEntry struct {
	Key  string
	Spec OverrideSpec
}

// OverrideMap preserves the declared order of override sets, which
// determines application order when several sets match the environment.
type OverrideMap []OverrideEntry

// Keys returns the override-set names in declared order.
func (m OverrideMap) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

func (m *OverrideMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*m = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: envOverrides must be a mapping", value.Line)
	}
	out := make(OverrideMap, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		var key string
		if err := keyNode.Decode(&key); err != nil {
			return err
		}
		var spec OverrideSpec
		if err := valNode.Decode(&spec); err != nil {
			return fmt.Errorf("override set %q: %w", key, err)
		}
		out = append(out, OverrideEntry{Key: key, Spec: spec})
	}
	*m = out
	return nil
}

func (m *OverrideMap) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*m = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("envOverrides must be an object")
	}
	var out OverrideMap
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("envOverrides: non-string key %v", keyTok)
		}
		var spec OverrideSpec
		if err := dec.Decode(&spec); err != nil {
			return fmt.Errorf("override set %q: %w", key, err)
		}
		out = append(out, OverrideEntry{Key: key, Spec: spec})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// OverrideSpec is a partial project configuration applied when its
// override set's name is truthy in the active environment. Pointer and
// nilable fields distinguish unset from explicitly-set-to-empty.
// Fields a project does not declare here are left untouched.
type OverrideSpec struct {
	Root   *string        `yaml:"root" json:"root"`
	OutDir *string        `yaml:"outDir" json:"outDir"`
	Entry  StringList     `yaml:"entry" json:"entry"`
	Target *string        `yaml:"target" json:"target"`
	Assets EntryList      `yaml:"assets" json:"assets"`
	Styles EntryList      `yaml:"styles" json:"styles"`
	Vendor []string       `yaml:"vendor" json:"vendor"`
	Bundle *BundleOptions `yaml:"bundle" json:"bundle"`
	Lib    *LibOptions    `yaml:"lib" json:"lib"`
	Skip   *bool          `yaml:"skip" json:"skip"`
	Custom *CustomConfig  `yaml:"custom" json:"custom"`
}

// Clone returns a deep copy suitable for mutation during resolution,
// leaving the loaded document untouched. Override maps are shared: they
// are read-only after decode.
func (p Project) Clone() Project {
	c := p
	c.Entry = slices.Clone(p.Entry)
	c.Assets = cloneEntryList(p.Assets)
	c.Styles = cloneEntryList(p.Styles)
	c.Vendor = slices.Clone(p.Vendor)
	if p.Bundle != nil {
		c.Bundle = p.Bundle.clone()
	}
	if p.Lib != nil {
		l := *p.Lib
		l.Externals = slices.Clone(p.Lib.Externals)
		c.Lib = &l
	}
	if p.Custom != nil {
		c.Custom = p.Custom.clone()
	}
	return c
}

func cloneEntryList(list EntryList) EntryList {
	if list == nil {
		return nil
	}
	out := make(EntryList, len(list))
	for i, spec := range list {
		spec.Exclude = slices.Clone(spec.Exclude)
		out[i] = spec
	}
	return out
}

func (b *BundleOptions) clone() *BundleOptions {
	out := &BundleOptions{}
	if b.Minify != nil {
		v := *b.Minify
		out.Minify = &v
	}
	if b.SourceMaps != nil {
		v := *b.SourceMaps
		out.SourceMaps = &v
	}
	if b.Hashing != nil {
		v := *b.Hashing
		out.Hashing = &v
	}
	if b.PublicPath != nil {
		v := *b.PublicPath
		out.PublicPath = &v
	}
	return out
}

func (c *CustomConfig) clone() *CustomConfig {
	out := &CustomConfig{
		Rules:   slices.Clone(c.Rules),
		Plugins: slices.Clone(c.Plugins),
	}
	if c.Entry != nil {
		out.Entry = make(map[string]StringList, len(c.Entry))
		for k, v := range c.Entry {
			out.Entry[k] = slices.Clone(v)
		}
	}
	if c.Options != nil {
		out.Options = deepCloneMap(c.Options)
	}
	return out
}

func deepCloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCloneValue(v)
	}
	return out
}

func deepCloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCloneValue(item)
		}
		return out
	default:
		return v
	}
}

// HasVendor reports whether the project declares vendor modules and is
// therefore vendor-bundle eligible.
func (p *Project) HasVendor() bool {
	return len(p.Vendor) > 0
}

// VendorChunkName returns the identifier vendor artifacts are named
// after.
func (p *Project) VendorChunkName() string {
	return strings.TrimSpace(p.Name) + "-vendor"
}
