package project

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

// Reserved filter group names. Projects may not use them as names.
const (
	GroupApps = "apps"
	GroupLibs = "libs"
)

// Schema describes the structural constraints a configuration document
// must satisfy. The constraint tables are data so the schema can be
// versioned independently of the validation code.
type Schema struct {
	Version     string
	Targets     []string
	LibFormats  []string
	SourceMaps  []string
	NamePattern *regexp.Regexp
}

// DefaultSchema returns the schema this tool ships with.
func DefaultSchema() *Schema {
	return &Schema{
		Version:     "1",
		Targets:     []string{TargetWeb, TargetNode, TargetWebWorker},
		LibFormats:  []string{"umd", "commonjs", "esm"},
		SourceMaps:  []string{"none", "cheap", "full"},
		NamePattern: regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`),
	}
}

// Validate checks the document against the schema and returns every
// violation found. It is stateless and deterministic: the same document
// always yields the same violations in the same order. Zero violations
// means the document may proceed to resolution. Semantic cross-field
// checks are not performed here; those belong to the resolution steps.
func (s *Schema) Validate(cfg *Config) []rigerr.Violation {
	if cfg == nil {
		return []rigerr.Violation{{Message: "document is empty"}}
	}

	var violations []rigerr.Violation
	seen := make(map[string]string, len(cfg.Apps)+len(cfg.Libs))

	if cfg.Defaults != nil {
		violations = append(violations, s.validateDefaults(cfg.Defaults)...)
	}
	for i := range cfg.Apps {
		path := fmt.Sprintf("%s[%d]", GroupApps, i)
		violations = append(violations, s.validateProject(path, &cfg.Apps[i], KindApp, seen)...)
	}
	for i := range cfg.Libs {
		path := fmt.Sprintf("%s[%d]", GroupLibs, i)
		violations = append(violations, s.validateProject(path, &cfg.Libs[i], KindLib, seen)...)
	}

	return violations
}

func (s *Schema) validateDefaults(d *Defaults) []rigerr.Violation {
	var violations []rigerr.Violation
	if d.Target != "" && !slices.Contains(s.Targets, d.Target) {
		violations = append(violations, rigerr.Violation{
			Path:    "defaults.target",
			Message: fmt.Sprintf("unknown target %q, valid targets: %v", d.Target, s.Targets),
		})
	}
	violations = append(violations, s.validateBundle("defaults.bundle", d.Bundle)...)
	return violations
}

func (s *Schema) validateProject(path string, p *Project, kind Kind, seen map[string]string) []rigerr.Violation {
	var violations []rigerr.Violation

	switch {
	case p.Name == "":
		violations = append(violations, rigerr.Violation{Path: path + ".name", Message: "is required"})
	case p.Name == GroupApps || p.Name == GroupLibs:
		violations = append(violations, rigerr.Violation{
			Path:    path + ".name",
			Message: fmt.Sprintf("%q is a reserved group name", p.Name),
		})
	case !s.NamePattern.MatchString(p.Name):
		violations = append(violations, rigerr.Violation{
			Path:    path + ".name",
			Message: fmt.Sprintf("%q does not match %s", p.Name, s.NamePattern),
		})
	default:
		if prev, dup := seen[p.Name]; dup {
			violations = append(violations, rigerr.Violation{
				Path:    path + ".name",
				Message: fmt.Sprintf("duplicate project name %q, first declared at %s", p.Name, prev),
			})
		} else {
			seen[p.Name] = path
		}
	}

	if p.Target != "" && !slices.Contains(s.Targets, p.Target) {
		violations = append(violations, rigerr.Violation{
			Path:    path + ".target",
			Message: fmt.Sprintf("unknown target %q, valid targets: %v", p.Target, s.Targets),
		})
	}

	for i, mod := range p.Vendor {
		if mod == "" {
			violations = append(violations, rigerr.Violation{
				Path:    fmt.Sprintf("%s.vendor[%d]", path, i),
				Message: "vendor module name must not be empty",
			})
		}
	}

	if kind == KindApp && p.Lib != nil {
		violations = append(violations, rigerr.Violation{
			Path:    path + ".lib",
			Message: "library options are only valid on library projects",
		})
	}
	if p.Lib != nil && p.Lib.Format != "" && !slices.Contains(s.LibFormats, p.Lib.Format) {
		violations = append(violations, rigerr.Violation{
			Path:    path + ".lib.format",
			Message: fmt.Sprintf("unknown format %q, valid formats: %v", p.Lib.Format, s.LibFormats),
		})
	}

	violations = append(violations, s.validateBundle(path+".bundle", p.Bundle)...)

	for i, entry := range p.EnvOverrides {
		if entry.Key == "" {
			violations = append(violations, rigerr.Violation{
				Path:    fmt.Sprintf("%s.envOverrides[%d]", path, i),
				Message: "override set name must not be empty",
			})
		}
		violations = append(violations, s.validateBundle(
			fmt.Sprintf("%s.envOverrides.%s.bundle", path, entry.Key), entry.Spec.Bundle)...)
	}

	if p.Custom != nil {
		for i, rule := range p.Custom.Rules {
			if rule.Test == "" {
				violations = append(violations, rigerr.Violation{
					Path:    fmt.Sprintf("%s.custom.rules[%d].test", path, i),
					Message: "is required",
				})
			}
		}
		for i, plugin := range p.Custom.Plugins {
			if plugin.Name == "" {
				violations = append(violations, rigerr.Violation{
					Path:    fmt.Sprintf("%s.custom.plugins[%d].name", path, i),
					Message: "is required",
				})
			}
		}
	}

	return violations
}

func (s *Schema) validateBundle(path string, b *BundleOptions) []rigerr.Violation {
	if b == nil || b.SourceMaps == nil {
		return nil
	}
	if slices.Contains(s.SourceMaps, *b.SourceMaps) {
		return nil
	}
	return []rigerr.Violation{{
		Path:    path + ".sourceMaps",
		Message: fmt.Sprintf("unknown source map mode %q, valid modes: %v", *b.SourceMaps, s.SourceMaps),
	}}
}
