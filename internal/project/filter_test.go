package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func resolvedNamed(kind Kind, names ...string) []*Resolved {
	out := make([]*Resolved, len(names))
	for i, n := range names {
		out[i] = &Resolved{Project: Project{Name: n}, Kind: kind, Index: i}
	}
	return out
}

func names(list []*Resolved) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Name
	}
	return out
}

func TestFilterEmptyRequestKeepsAll(t *testing.T) {
	apps := resolvedNamed(KindApp, "site", "admin", "docs")

	got := Filter(apps, KindApp, nil)
	assert.Equal(t, []string{"site", "admin", "docs"}, names(got))
}

func TestFilterSkipAlwaysExcluded(t *testing.T) {
	apps := resolvedNamed(KindApp, "site", "admin")
	apps[1].Skip = true

	assert.Equal(t, []string{"site"}, names(Filter(apps, KindApp, nil)))
	// Even an exact name request cannot resurrect a skipped project.
	assert.Empty(t, Filter(apps, KindApp, []string{"admin"}))
}

func TestFilterByName(t *testing.T) {
	apps := resolvedNamed(KindApp, "site", "admin", "docs")

	got := Filter(apps, KindApp, []string{"docs", "site"})
	assert.Equal(t, []string{"site", "docs"}, names(got), "original order is preserved")
}

func TestFilterCaseSensitive(t *testing.T) {
	apps := resolvedNamed(KindApp, "site")

	assert.Empty(t, Filter(apps, KindApp, []string{"Site"}))
}

func TestFilterGroupNames(t *testing.T) {
	apps := resolvedNamed(KindApp, "site", "admin")
	libs := resolvedNamed(KindLib, "ui-kit")

	// "apps" selects the whole app kind and empties the lib kind.
	assert.Equal(t, []string{"site", "admin"}, names(Filter(apps, KindApp, []string{"apps"})))
	assert.Empty(t, Filter(libs, KindLib, []string{"apps"}))

	// And symmetrically for "libs".
	assert.Empty(t, Filter(apps, KindApp, []string{"libs"}))
	assert.Equal(t, []string{"ui-kit"}, names(Filter(libs, KindLib, []string{"libs"})))
}

func TestFilterMutualExclusionRequiresExclusivity(t *testing.T) {
	apps := resolvedNamed(KindApp, "site", "admin")
	libs := resolvedNamed(KindLib, "ui-kit")

	// A mixed request is not the mutual-exclusion shortcut: names still
	// match in their own group alongside the opposite group name.
	requested := []string{"libs", "site"}
	assert.Equal(t, []string{"site"}, names(Filter(apps, KindApp, requested)))
	assert.Equal(t, []string{"ui-kit"}, names(Filter(libs, KindLib, requested)))
}

func TestFilterBothGroups(t *testing.T) {
	apps := resolvedNamed(KindApp, "site")
	libs := resolvedNamed(KindLib, "ui-kit")

	requested := []string{"apps", "libs"}
	assert.Equal(t, []string{"site"}, names(Filter(apps, KindApp, requested)))
	assert.Equal(t, []string{"ui-kit"}, names(Filter(libs, KindLib, requested)))
}

func TestFilterUnknownName(t *testing.T) {
	apps := resolvedNamed(KindApp, "site")

	assert.Empty(t, Filter(apps, KindApp, []string{"nope"}))
}
