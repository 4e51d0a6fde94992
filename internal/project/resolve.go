package project

import (
	"path/filepath"

	"github.com/bundlerig/bundlerig/pkg/buildctx"
	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

// ResolveProject turns one raw project into its resolved form: defaults
// filled, matching override sets applied, paths made absolute. The raw
// project is cloned first; the loaded document is never mutated.
func ResolveProject(raw Project, kind Kind, index int, doc *Defaults, bc *buildctx.Context) (*Resolved, error) {
	p := raw.Clone()

	ApplyDefaults(&p, doc, kind)
	if err := ApplyEnvOverrides(&p, bc.Env); err != nil {
		return nil, err
	}

	// Overrides may clear the output path; that surfaces here, at
	// validation time, not at override time.
	if p.OutDir == "" {
		return nil, rigerr.NewConfig("%s[%d] (%s): output path is empty after applying overrides",
			kind.ListName(), index, p.Name)
	}

	absRoot := p.Root
	if !filepath.IsAbs(absRoot) {
		absRoot = filepath.Join(bc.Workspace, absRoot)
	}
	absOut := p.OutDir
	if !filepath.IsAbs(absOut) {
		absOut = filepath.Join(absRoot, absOut)
	}

	return &Resolved{
		Project:   p,
		Kind:      kind,
		Index:     index,
		AbsRoot:   absRoot,
		AbsOutDir: absOut,
	}, nil
}

// ResolveList resolves every project of one document list in declared
// order. The position in the list becomes the project's stable index.
func ResolveList(list []Project, kind Kind, doc *Defaults, bc *buildctx.Context) ([]*Resolved, error) {
	out := make([]*Resolved, 0, len(list))
	for i := range list {
		rc, err := ResolveProject(list[i], kind, i, doc, bc)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, nil
}
