package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlerig/bundlerig/pkg/bundler"
	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

func violationPaths(violations []rigerr.Violation) []string {
	paths := make([]string, len(violations))
	for i, v := range violations {
		paths[i] = v.Path
	}
	return paths
}

func TestValidateCleanDocument(t *testing.T) {
	cfg := &Config{
		Apps: []Project{
			{Name: "site", Target: "web"},
			{Name: "admin"},
		},
		Libs: []Project{
			{Name: "ui-kit", Lib: &LibOptions{Format: "esm"}},
		},
	}

	assert.Empty(t, DefaultSchema().Validate(cfg))
}

func TestValidateNilDocument(t *testing.T) {
	violations := DefaultSchema().Validate(nil)
	require.Len(t, violations, 1)
	assert.Equal(t, "document is empty", violations[0].Message)
}

func TestValidateMissingName(t *testing.T) {
	cfg := &Config{Apps: []Project{{}}}

	violations := DefaultSchema().Validate(cfg)
	require.Len(t, violations, 1)
	assert.Equal(t, "apps[0].name", violations[0].Path)
	assert.Equal(t, "is required", violations[0].Message)
}

func TestValidateReservedName(t *testing.T) {
	cfg := &Config{Libs: []Project{{Name: "apps"}}}

	violations := DefaultSchema().Validate(cfg)
	require.Len(t, violations, 1)
	assert.Equal(t, "libs[0].name", violations[0].Path)
	assert.Contains(t, violations[0].Message, "reserved group name")
}

func TestValidateNamePattern(t *testing.T) {
	cfg := &Config{Apps: []Project{{Name: "My App!"}}}

	violations := DefaultSchema().Validate(cfg)
	require.Len(t, violations, 1)
	assert.Equal(t, "apps[0].name", violations[0].Path)
}

func TestValidateDuplicateNamesAcrossLists(t *testing.T) {
	cfg := &Config{
		Apps: []Project{{Name: "shared"}},
		Libs: []Project{{Name: "shared"}},
	}

	violations := DefaultSchema().Validate(cfg)
	require.Len(t, violations, 1)
	assert.Equal(t, "libs[0].name", violations[0].Path)
	assert.Contains(t, violations[0].Message, "apps[0]")
}

func TestValidateBadTarget(t *testing.T) {
	cfg := &Config{Apps: []Project{{Name: "site", Target: "dom"}}}

	violations := DefaultSchema().Validate(cfg)
	require.Len(t, violations, 1)
	assert.Equal(t, "apps[0].target", violations[0].Path)
	assert.Contains(t, violations[0].Message, `"dom"`)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	bad := "bad"
	cfg := &Config{
		Defaults: &Defaults{Target: "dom"},
		Apps: []Project{
			{
				Name:   "site",
				Vendor: []string{"react", ""},
				Lib:    &LibOptions{},
				Bundle: &BundleOptions{SourceMaps: &bad},
			},
		},
		Libs: []Project{
			{Name: "kit", Lib: &LibOptions{Format: "iife"}},
		},
	}

	violations := DefaultSchema().Validate(cfg)
	assert.ElementsMatch(t, []string{
		"defaults.target",
		"apps[0].vendor[1]",
		"apps[0].lib",
		"apps[0].bundle.sourceMaps",
		"libs[0].lib.format",
	}, violationPaths(violations))
}

func TestValidateCustomSections(t *testing.T) {
	cfg := &Config{
		Apps: []Project{{
			Name: "site",
			Custom: &CustomConfig{
				Rules:   []bundler.Rule{{Test: `\.tsx?$`, Use: []string{"ts-loader"}}, {}},
				Plugins: []bundler.Plugin{{}},
			},
		}},
	}

	violations := DefaultSchema().Validate(cfg)
	assert.ElementsMatch(t, []string{
		"apps[0].custom.rules[1].test",
		"apps[0].custom.plugins[0].name",
	}, violationPaths(violations))
}

func TestValidateOverrideBundle(t *testing.T) {
	invalid := "inline"
	cfg := &Config{
		Apps: []Project{{
			Name: "site",
			EnvOverrides: OverrideMap{
				{Key: "production", Spec: OverrideSpec{Bundle: &BundleOptions{SourceMaps: &invalid}}},
			},
		}},
	}

	violations := DefaultSchema().Validate(cfg)
	require.Len(t, violations, 1)
	assert.Equal(t, "apps[0].envOverrides.production.bundle.sourceMaps", violations[0].Path)
}

func TestValidateDeterministic(t *testing.T) {
	cfg := &Config{
		Apps: []Project{{Target: "dom"}, {Name: "dup"}},
		Libs: []Project{{Name: "dup"}},
	}

	first := DefaultSchema().Validate(cfg)
	second := DefaultSchema().Validate(cfg)
	assert.Equal(t, first, second)
}
