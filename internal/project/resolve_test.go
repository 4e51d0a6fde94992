package project

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlerig/bundlerig/pkg/buildctx"
	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

func testRunContext(env *buildctx.Environment) *buildctx.Context {
	return buildctx.New("/work", env)
}

func TestResolveProjectPaths(t *testing.T) {
	raw := Project{Name: "site", Root: "packages/site"}

	rc, err := ResolveProject(raw, KindApp, 0, nil, testRunContext(nil))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/work", "packages", "site"), rc.AbsRoot)
	assert.Equal(t, filepath.Join("/work", "packages", "site", "dist"), rc.AbsOutDir)
	assert.Equal(t, KindApp, rc.Kind)
	assert.Equal(t, 0, rc.Index)
	assert.Equal(t, "apps[0]", rc.Path())
}

func TestResolveProjectAbsolutePathsKept(t *testing.T) {
	raw := Project{Name: "site", Root: "/srv/site", OutDir: "/srv/out"}

	rc, err := ResolveProject(raw, KindApp, 0, nil, testRunContext(nil))
	require.NoError(t, err)

	assert.Equal(t, "/srv/site", rc.AbsRoot)
	assert.Equal(t, "/srv/out", rc.AbsOutDir)
}

func TestResolveProjectAppliesOverrides(t *testing.T) {
	raw := Project{
		Name: "site",
		EnvOverrides: OverrideMap{
			{Key: "production", Spec: OverrideSpec{OutDir: strPtr("build")}},
		},
	}

	rc, err := ResolveProject(raw, KindApp, 0, nil, testRunContext(&buildctx.Environment{Production: true}))
	require.NoError(t, err)
	assert.Equal(t, "build", rc.OutDir)
	assert.Equal(t, filepath.Join("/work", "build"), rc.AbsOutDir)
}

func TestResolveProjectEmptyOutDirAfterOverride(t *testing.T) {
	raw := Project{
		Name: "site",
		EnvOverrides: OverrideMap{
			{Key: "production", Spec: OverrideSpec{OutDir: strPtr("")}},
		},
	}

	_, err := ResolveProject(raw, KindApp, 2, nil, testRunContext(&buildctx.Environment{Production: true}))
	require.Error(t, err)
	assert.True(t, rigerr.IsConfig(err))
	assert.Contains(t, err.Error(), "apps[2]")
}

func TestResolveProjectLeavesDocumentUntouched(t *testing.T) {
	raw := Project{
		Name:   "site",
		Vendor: []string{"react"},
		EnvOverrides: OverrideMap{
			{Key: "production", Spec: OverrideSpec{Vendor: []string{"preact"}}},
		},
	}

	_, err := ResolveProject(raw, KindApp, 0, nil, testRunContext(&buildctx.Environment{Production: true}))
	require.NoError(t, err)

	assert.Equal(t, []string{"react"}, raw.Vendor)
	assert.Equal(t, "", raw.OutDir, "defaults must not leak into the document")
}

func TestResolveListIndexes(t *testing.T) {
	list := []Project{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	out, err := ResolveList(list, KindLib, nil, testRunContext(nil))
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, rc := range out {
		assert.Equal(t, i, rc.Index)
		assert.Equal(t, KindLib, rc.Kind)
	}
	assert.Equal(t, "libs[1]", out[1].Path())
}

func TestResolveListFailFast(t *testing.T) {
	list := []Project{
		{Name: "good"},
		{Name: "bad", EnvOverrides: OverrideMap{
			{Key: "production", Spec: OverrideSpec{OutDir: strPtr("")}},
		}},
	}

	_, err := ResolveList(list, KindApp, nil, testRunContext(&buildctx.Environment{Production: true}))
	require.Error(t, err)
	assert.True(t, rigerr.IsConfig(err))
}
